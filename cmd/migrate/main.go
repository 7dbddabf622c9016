package main

import (
	"errors"
	"flag"
	"log"
	"os"

	"fobbage/internal/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	source := flag.String("source", "file://db/migrations", "migration source URL")
	down := flag.Bool("down", false, "roll back the most recent migration instead of applying pending ones")
	flag.Parse()

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	m, err := migrate.New(*source, dsn)
	if err != nil {
		log.Fatalf("open migrations: %v", err)
	}
	defer m.Close()

	if *down {
		if err := m.Steps(-1); err != nil {
			log.Fatalf("roll back migration: %v", err)
		}
		log.Println("rolled back one migration")
		return
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("apply migrations: %v", err)
	}
	log.Println("schema is up to date")
}
