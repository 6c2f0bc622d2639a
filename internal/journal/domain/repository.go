package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrInvalidRecord = errors.New("invalid_result_record")
	ErrNotFound      = errors.New("result_not_found")
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, record *ResultRecord) error
	FindByEnvelope(ctx context.Context, db *gorm.DB, envelopeID snowflake.ID) (*ResultRecord, error)
	LatestForApp(ctx context.Context, db *gorm.DB, appID string) (*ResultRecord, error)
}
