package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"notify-relay/internal/model"
)

// NewDB opens a SQLite database and runs migrations.
func NewDB(dsn string, log zerolog.Logger) (*gorm.DB, error) {
	if dsn == "" {
		dsn = "users.db"
	}

	if err := ensureDirForSQLite(dsn); err != nil {
		return nil, err
	}

	dbLogger := logger.New(
		gormWriter{log: log.With().Str("component", "gorm").Logger()},
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: dbLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// One connection serialises writers and keeps :memory: databases shared.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := db.AutoMigrate(&model.User{}); err != nil {
		return nil, fmt.Errorf("migrate db: %w", err)
	}

	if err := normalizeLegacyStatuses(context.Background(), db, log); err != nil {
		return nil, err
	}

	return db, nil
}

// normalizeLegacyStatuses rewrites status labels written by older
// deployments (which stored the display label) to canonical values.
func normalizeLegacyStatuses(ctx context.Context, db *gorm.DB, log zerolog.Logger) error {
	for label, status := range model.LegacyStatuses() {
		res := db.WithContext(ctx).Model(&model.User{}).
			Where("notification_status = ?", label).
			Update("notification_status", status)
		if res.Error != nil {
			return fmt.Errorf("normalize status %q: %w", label, res.Error)
		}
		if res.RowsAffected > 0 {
			log.Info().Str("from", label).Str("to", string(status)).Int64("rows", res.RowsAffected).Msg("normalized legacy notification status")
		}
	}
	return nil
}

// ensureDirForSQLite creates parent dir for SQLite file if needed.
func ensureDirForSQLite(dsn string) error {
	// Ignore DSNs with explicit mode=memory or network.
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		return nil
	}
	// Strip file: prefix if present.
	clean := strings.TrimPrefix(dsn, "file:")
	clean = strings.Split(clean, "?")[0]
	dir := filepath.Dir(clean)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db dir %q: %w", dir, err)
	}
	return nil
}

// gormWriter routes gorm's logger output through zerolog.
type gormWriter struct {
	log zerolog.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.log.Warn().Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}
