package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"fobbage/internal/config"
	"fobbage/internal/db"
	"fobbage/internal/server"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger setup failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	conn := openDatabase(cfg, logger)

	srv := server.New(conn, cfg, logger)
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		srv.SetPublisher(server.NewRedisNotifier(client, logger))
		logger.Info("redis notifier enabled", zap.String("addr", cfg.RedisAddr))
	}

	addr := ":8080"
	if env := os.Getenv("PORT"); env != "" {
		addr = ":" + env
	}
	logger.Info("fobbage server listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

// openDatabase connects when DATABASE_URL is set; without it the server runs
// in memory only.
func openDatabase(cfg config.Config, logger *zap.Logger) *gorm.DB {
	if os.Getenv("DATABASE_URL") == "" {
		logger.Warn("DATABASE_URL is not set, running without persistence")
		return nil
	}
	conn, err := db.Open()
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	sqlDB, err := conn.DB()
	if err != nil {
		logger.Fatal("database handle unavailable", zap.Error(err))
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetimeSeconds) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.DBConnMaxIdleTimeSeconds) * time.Second)
	if err := db.Migrate(conn); err != nil {
		logger.Fatal("database migration failed", zap.Error(err))
	}
	return conn
}
