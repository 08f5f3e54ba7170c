package db

import (
	"fmt"
	"log"

	"Gin_postgres_redis_tsd_control/config"
	"Gin_postgres_redis_tsd_control/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func gormConfig() *gorm.Config {
	return &gorm.Config{TranslateError: true}
}

// Open 按 DB_DRIVER 打开数据库并迁移
func Open(cfg config.Config) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	switch cfg.DBDriver {
	case "sqlite":
		db, err = OpenSQLite(cfg.SQLitePath)
	case "postgres", "":
		db, err = gorm.Open(postgres.Open(cfg.PostgresDSN()), gormConfig())
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// OpenSQLite opens a sqlite database with a single connection, sqlite having one writer anyway.
func OpenSQLite(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

func ConnectDB(cfg config.Config) *gorm.DB {
	db, err := Open(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	log.Printf("Database connected (%s)", cfg.DBDriver)
	return db
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Company{}, &models.User{}, &models.TSDTransaction{}, &models.AdminLog{}); err != nil {
		return err
	}

	// 同一终端最多一条 issued 记录
	if err := db.Exec(fmt.Sprintf(`
	  CREATE UNIQUE INDEX IF NOT EXISTS %s_one_outstanding
	  ON %s (tsd_number)
	  WHERE status = 'issued';
	`, models.TSDTransactionTable, models.TSDTransactionTable)).Error; err != nil {
		return err
	}

	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_issue_time_desc
	  ON %s (issue_time DESC, id DESC);
	`, models.TSDTransactionTable, models.TSDTransactionTable)).Error; err != nil {
		return err
	}

	return nil
}
