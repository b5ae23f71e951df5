package database

import (
	"context"
	"fmt"
	"time"

	"wellness-bot/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// Config database connection settings
type Config struct {
	Driver          string // mysql | postgres | sqlite
	Host            string
	Port            int
	Username        string
	Password        string
	Database        string // file path for sqlite
	Charset         string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime int // seconds
	ConnMaxIdleTime int // seconds
}

// Open opens a connection pool and verifies it with a ping
func Open(cfg Config) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
		SkipDefaultTransaction:                   true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// single writer avoids SQLITE_BUSY between sweeps and commands
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
		if cfg.ConnMaxIdleTime > 0 {
			sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Second)
		} else {
			sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		}
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"driver":         cfg.Driver,
		"max_idle_conns": cfg.MaxIdleConns,
		"max_open_conns": cfg.MaxOpenConns,
	}).Debug("database pool configured")

	return db, nil
}

func dialectorFor(cfg Config) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "mysql", "":
		charset := cfg.Charset
		if charset == "" {
			charset = "utf8mb4"
		}
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=UTC&timeout=10s&readTimeout=30s&writeTimeout=30s",
			cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database, charset)
		return mysql.Open(dsn), nil
	case "postgres":
		sslMode := cfg.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database, sslMode)
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Dialector{DriverName: "sqlite", DSN: cfg.Database}, nil
	}
	return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
}

// AutoMigrate syncs every table used by the bot
func AutoMigrate(db *gorm.DB) error {
	tableModels := []interface{}{
		&models.ModerationRule{},
		&models.UserWarning{},
		&models.WellnessCheck{},
		&models.UserData{},
		&models.MoodEntry{},
		&models.Affirmation{},
		&models.StaffMember{},
		&models.DirectoryEntry{},
		&models.OperationLog{},
	}

	if err := db.AutoMigrate(tableModels...); err != nil {
		return fmt.Errorf("schema migration failed: %w", err)
	}
	return nil
}

// Ping health check used by the HTTP surface and the scheduler
func Ping(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database not initialized")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// PingWithRetry pings up to maxRetries times with linear backoff
func PingWithRetry(ctx context.Context, db *gorm.DB, maxRetries int) error {
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		lastErr = Ping(ctx, db)
		if lastErr == nil {
			return nil
		}
		if i < maxRetries-1 {
			wait := time.Duration(i+1) * time.Second
			logrus.WithFields(logrus.Fields{
				"attempt": i + 1,
				"wait":    wait,
			}).Warn("⚠️ database ping failed, retrying...")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
	}
	return fmt.Errorf("database unreachable after %d attempts: %w", maxRetries, lastErr)
}

// Stats connection pool summary
func Stats(db *gorm.DB) string {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Sprintf("failed to get sql.DB: %v", err)
	}
	stats := sqlDB.Stats()
	return fmt.Sprintf("open: %d, in use: %d, idle: %d, wait: %d",
		stats.OpenConnections, stats.InUse, stats.Idle, stats.WaitCount)
}

// Close closes the pool
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	logrus.Info("🔌 closing database connection...")
	return sqlDB.Close()
}
