package database

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"

	"pos_kiosk_backend/pkg/utils"
)

var db *sql.DB

// InitDB opens the postgres connection pool and verifies connectivity.
func InitDB() (*sql.DB, error) {
	host := utils.Getenv("DB_HOST", "localhost")
	port := utils.Getenv("DB_PORT", "5432")
	user := utils.Getenv("DB_USER", "postgres")
	password := utils.Getenv("DB_PASSWORD", "postgres")
	dbname := utils.Getenv("DB_NAME", "pos_kiosk")
	sslmode := utils.Getenv("DB_SSLMODE", "disable")

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)

	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if schemaPath := utils.Getenv("DB_SCHEMA_PATH", ""); schemaPath != "" {
		if err := applySchema(conn, schemaPath); err != nil {
			return nil, err
		}
	}

	db = conn
	utils.LogInfo("database connection established")
	return db, nil
}

// applySchema executes the schema script at the given path. Used for local
// setups; deployed environments manage the schema out of band.
func applySchema(conn *sql.DB, schemaPath string) error {
	content, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("could not read schema file %s: %w", schemaPath, err)
	}
	if _, err := conn.Exec(string(content)); err != nil {
		return fmt.Errorf("could not execute schema script: %w", err)
	}
	utils.LogInfo("database schema applied")
	return nil
}

// GetDB returns the shared connection pool.
func GetDB() *sql.DB {
	return db
}
