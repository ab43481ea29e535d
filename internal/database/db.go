package database

import (
	"fmt"
	"time"

	"recordadmin/internal/config"
	"recordadmin/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	maxAttempts  = 10
	retryTimeout = 2 * time.Second
)

func Open(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DBDSN)
	default:
		dialector = postgres.Open(cfg.DBDSN)
	}

	gormCfg := &gorm.Config{Logger: gormLogger(log, cfg.LogLevel)}

	var db *gorm.DB
	var err error
	for i := 1; i <= maxAttempts; i++ {
		log.Info("trying to connect to DB",
			zap.String("driver", cfg.DBDriver),
			zap.Int("attempt", i),
			zap.Int("max_attempts", maxAttempts))

		db, err = gorm.Open(dialector, gormCfg)
		if err == nil {
			log.Info("connected to DB successfully")
			break
		}

		log.Warn("failed to connect to DB", zap.Error(err))
		if cfg.DBDriver == "sqlite" {
			break
		}
		time.Sleep(retryTimeout)
	}
	if err != nil {
		return nil, fmt.Errorf("connect to db: %w", err)
	}

	if cfg.DBDriver == "sqlite" {
		// у sqlite один писатель, транзакция не должна ждать второго соединения
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("sqlite pool: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// OpenMemory открывает sqlite в памяти со всеми миграциями, для тестов и локального запуска.
func OpenMemory() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Draft{},
		&models.League{},
		&models.Division{},
		&models.Fan{},
		&models.Team{},
		&models.Player{},
		&models.Ball{},
		&models.User{},
		&models.FieldTest{},
		&models.History{},
	)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func gormLogger(log *zap.Logger, level string) logger.Interface {
	lvl := logger.Warn
	switch level {
	case "debug":
		lvl = logger.Info
	case "error":
		lvl = logger.Error
	}
	return logger.New(zap.NewStdLog(log.Named("gorm")), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  lvl,
		IgnoreRecordNotFoundError: true,
	})
}
