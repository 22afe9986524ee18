package main

import (
	"database/sql"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib" // postgres driver
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"

	"klinehub/configs"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg := configs.AppLoad()

	db, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	if err := goose.SetDialect("postgres"); err != nil {
		logger.Fatalf("Goose: failed to set dialect: %v", err)
	}

	dir := "migrations"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	logger.Info("Running database migrations...")
	if err := goose.Up(db, dir); err != nil {
		logger.Fatalf("Goose migration failed: %v", err)
	}

	logger.Info("Migrations completed successfully")
}
