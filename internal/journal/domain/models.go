package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// ResultRecord is one delivered call result, journaled so a controller that
// re-attaches after the fact can still observe the terminal outcome.
type ResultRecord struct {
	ID          snowflake.ID   `gorm:"column:id;primaryKey"`
	AppID       string         `gorm:"column:app_id"`
	EnvelopeID  snowflake.ID   `gorm:"column:envelope_id"`
	RequestType string         `gorm:"column:request_type"`
	ResultType  string         `gorm:"column:result_type"`
	Result      datatypes.JSON `gorm:"column:result"`
	DeliveredAt time.Time      `gorm:"column:delivered_at"`
}

func (ResultRecord) TableName() string { return "call_results" }
