package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	journaldomain "github.com/smallbiznis/dropin/internal/journal/domain"
	"gorm.io/gorm"
)

type gormRepository struct{}

// Provide returns the gorm-backed journal repository.
func Provide() journaldomain.Repository {
	return gormRepository{}
}

// Migrate creates the journal table. Safe to run on every start.
func Migrate(db *gorm.DB) error {
	return db.Exec(
		`CREATE TABLE IF NOT EXISTS call_results (
			id BIGINT PRIMARY KEY,
			app_id TEXT NOT NULL,
			envelope_id BIGINT NOT NULL,
			request_type TEXT NOT NULL,
			result_type TEXT NOT NULL,
			result TEXT NOT NULL,
			delivered_at TIMESTAMP NOT NULL
		)`,
	).Error
}

func (gormRepository) Insert(ctx context.Context, db *gorm.DB, record *journaldomain.ResultRecord) error {
	if record == nil || record.ID == 0 || record.EnvelopeID == 0 {
		return journaldomain.ErrInvalidRecord
	}
	if strings.TrimSpace(record.AppID) == "" || strings.TrimSpace(record.ResultType) == "" {
		return journaldomain.ErrInvalidRecord
	}
	return db.WithContext(ctx).Exec(
		`INSERT INTO call_results (id, app_id, envelope_id, request_type, result_type, result, delivered_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.AppID,
		record.EnvelopeID,
		record.RequestType,
		record.ResultType,
		string(record.Result),
		record.DeliveredAt,
	).Error
}

func (gormRepository) FindByEnvelope(ctx context.Context, db *gorm.DB, envelopeID snowflake.ID) (*journaldomain.ResultRecord, error) {
	var record journaldomain.ResultRecord
	err := db.WithContext(ctx).Raw(
		`SELECT id, app_id, envelope_id, request_type, result_type, result, delivered_at
		 FROM call_results
		 WHERE envelope_id = ?`,
		envelopeID,
	).Scan(&record).Error
	if err != nil {
		return nil, err
	}
	if record.ID == 0 {
		return nil, journaldomain.ErrNotFound
	}
	return &record, nil
}

func (gormRepository) LatestForApp(ctx context.Context, db *gorm.DB, appID string) (*journaldomain.ResultRecord, error) {
	var record journaldomain.ResultRecord
	err := db.WithContext(ctx).Raw(
		`SELECT id, app_id, envelope_id, request_type, result_type, result, delivered_at
		 FROM call_results
		 WHERE app_id = ?
		 ORDER BY id DESC
		 LIMIT 1`,
		appID,
	).Scan(&record).Error
	if err != nil {
		return nil, err
	}
	if record.ID == 0 {
		return nil, journaldomain.ErrNotFound
	}
	return &record, nil
}
