// Package db はGORMによるデータベース接続とマイグレーションを提供します。
package db

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	gmysql "gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"marketdata_backend/internal/feature/bhavcopy/adapters"
)

// Config はデータベース接続設定を保持します。
// Host が空の場合はMySQLではなくローカルのSQLiteファイルを使用します。
type Config struct {
	User       string
	Password   string
	Name       string
	Host       string
	Port       string
	SQLitePath string
}

// UseMySQL はMySQLへ接続すべきかどうかを返します。
func (c Config) UseMySQL() bool {
	return c.Host != ""
}

// LoadConfigFromEnv は環境変数からデータベース設定を読み込みます。
func LoadConfigFromEnv(sqlitePath string) Config {
	port := os.Getenv("DB_PORT")
	if port == "" {
		port = "3306"
	}
	return Config{
		User:       os.Getenv("DB_USER"),
		Password:   os.Getenv("DB_PASSWORD"),
		Name:       os.Getenv("DB_NAME"),
		Host:       os.Getenv("DB_HOST"),
		Port:       port,
		SQLitePath: sqlitePath,
	}
}

// BuildDSN はMySQL(TCP)接続用のDSN文字列を生成します。
func BuildDSN(cfg Config) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=Local",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name)
}

// OpenFunc はDSNからGORM接続を開く関数です。テストで差し替え可能にします。
type OpenFunc func(dsn string) (*gorm.DB, error)

// ConnectWithRetry は接続に成功するまで3秒間隔でリトライします。
// 起動直後のDB未準備（コンテナの起動順など）に備えたものです。
func ConnectWithRetry(dsn string, timeout time.Duration, open OpenFunc) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := open(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("DB connect failed after %s: %w", timeout, err)
		}
		slog.Warn("DB connect failed, retrying...", "error", err)
		time.Sleep(3 * time.Second)
	}
}

// OpenDB はデータベース接続を開き、スキーマを最新化して返します。
//
// DB_HOST が設定されている場合はMySQLへ接続し、未設定の場合は
// sqlitePath のSQLiteファイルを使います。
func OpenDB(sqlitePath string) (*gorm.DB, error) {
	cfg := LoadConfigFromEnv(sqlitePath)

	var (
		db  *gorm.DB
		err error
	)

	if cfg.UseMySQL() {
		db, err = ConnectWithRetry(BuildDSN(cfg), 60*time.Second, func(dsn string) (*gorm.DB, error) {
			return gorm.Open(gmysql.Open(dsn), &gorm.Config{})
		})
		if err != nil {
			return nil, err
		}
	} else {
		db, err = gorm.Open(sqlite.Open(cfg.SQLitePath), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLitePath, err)
		}
	}

	if os.Getenv("RUN_MIGRATIONS") != "false" {
		if err := db.AutoMigrate(
			&adapters.CompanyModel{},
			&adapters.DailyPriceModel{},
			&adapters.IngestionLogModel{},
		); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	return db, nil
}
