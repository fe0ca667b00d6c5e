package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hotel-booking/models"
	"hotel-booking/utils"
)

func mysqlDSNFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	user := u.User.Username()
	pass, _ := u.User.Password()
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "3306"
	}

	dbName := strings.TrimPrefix(u.Path, "/")
	if dbName == "" {
		return "", fmt.Errorf("mysql url missing database name")
	}

	q := u.Query()
	if q.Get("charset") == "" {
		q.Set("charset", "utf8mb4")
	}
	if q.Get("parseTime") == "" {
		q.Set("parseTime", "True")
	}
	if q.Get("loc") == "" {
		q.Set("loc", "UTC")
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?%s", user, pass, host, port, dbName, q.Encode()), nil
}

func resolveMySQLDSN(cfg DatabaseConfig) (string, error) {
	raw := strings.TrimSpace(cfg.DSN)
	if raw == "" {
		raw = strings.TrimSpace(os.Getenv("MYSQL_URL"))
	}
	if raw == "" {
		raw = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}

	if raw != "" {
		if strings.HasPrefix(raw, "mysql://") {
			return mysqlDSNFromURL(raw)
		}
		return raw, nil
	}

	user := utils.EnvOrDefault("DB_USER", "root")
	pass := utils.EnvOrDefault("DB_PASS", "")
	host := utils.EnvOrDefault("DB_HOST", "127.0.0.1")
	port := utils.EnvOrDefault("DB_PORT", "3306")
	dbName := utils.EnvOrDefault("DB_NAME", "hotel_db")

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		user, pass, host, port, dbName,
	), nil
}

func resolvePostgresDSN(cfg DatabaseConfig) string {
	if dsn := strings.TrimSpace(cfg.DSN); dsn != "" {
		return dsn
	}
	if dsn := strings.TrimSpace(os.Getenv("DATABASE_URL")); dsn != "" {
		return dsn
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		utils.EnvOrDefault("DB_HOST", "127.0.0.1"),
		utils.EnvOrDefault("DB_PORT", "5432"),
		utils.EnvOrDefault("DB_USER", "postgres"),
		utils.EnvOrDefault("DB_PASS", ""),
		utils.EnvOrDefault("DB_NAME", "hotel_db"),
		utils.EnvOrDefault("DB_SSLMODE", "disable"),
	)
}

func openDialector(cfg DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Type {
	case "", "mysql":
		dsn, err := resolveMySQLDSN(cfg)
		if err != nil {
			return nil, err
		}
		return mysql.Open(dsn), nil
	case "postgres":
		return postgres.Open(resolvePostgresDSN(cfg)), nil
	case "sqlite":
		path := cfg.SQLitePath
		if path == "" {
			path = "hotel.db"
		}
		return sqlite.Open(path), nil
	}
	return nil, fmt.Errorf("unsupported database type %q", cfg.Type)
}

func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	}
	return logger.Warn
}

// ConnectDatabase opens the configured database and migrates the schema.
func ConnectDatabase(cfg DatabaseConfig) (*gorm.DB, error) {
	dialector, err := openDialector(cfg)
	if err != nil {
		return nil, err
	}

	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormLogLevel(cfg.LogLevel),
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{Logger: newLogger, TranslateError: true})
	if err != nil {
		return nil, err
	}

	if sqlDB, err := db.DB(); err == nil {
		if cfg.Type == "sqlite" {
			// one writer at a time
			sqlDB.SetMaxOpenConns(1)
		} else {
			sqlDB.SetMaxOpenConns(25)
			sqlDB.SetMaxIdleConns(10)
			sqlDB.SetConnMaxLifetime(30 * time.Minute)
		}
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates or updates every table in parent -> child order.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(models.AllModels()...)
}
