package db

import (
	"fmt"

	"github.com/smallbiznis/dropin/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var Module = fx.Module("db",
	fx.Provide(Open),
)

// Open connects the journal store. sqlite is the default for development
// and embedded use; postgres serves shared deployments.
func Open(cfg config.Config, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Storage.Driver {
	case "sqlite", "":
		dialector = sqlite.Open(cfg.Storage.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.Storage.DSN)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	log.Named("db").Info("journal store connected", zap.String("driver", cfg.Storage.Driver))
	return conn, nil
}
