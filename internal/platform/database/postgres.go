package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// NewPostgresDB ouvre le pool de connexions vers le document store cloud.
func NewPostgresDB(url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return db, nil
}

// EnsureSchema crée les tables si elles n'existent pas (suffisant au stade
// hackathon, pas de système de migrations).
func EnsureSchema(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS anchors (
			id TEXT PRIMARY KEY,
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			altitude DOUBLE PRECISION NOT NULL DEFAULT 0,
			geohash TEXT NOT NULL,
			h3_cell TEXT NOT NULL DEFAULT '',
			message_text TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT 'general',
			use_case TEXT NOT NULL DEFAULT '',
			use_case_category TEXT NOT NULL DEFAULT '',
			severity TEXT NOT NULL DEFAULT 'MEDIUM',
			ts BIGINT NOT NULL,
			status TEXT NOT NULL DEFAULT 'PENDING',
			upvotes INTEGER NOT NULL DEFAULT 0,
			cloud_anchor_id TEXT NOT NULL DEFAULT '',
			wall_anchor_id TEXT NOT NULL DEFAULT '',
			photo_url TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_anchors_geohash ON anchors (geohash)`,
		`CREATE INDEX IF NOT EXISTS idx_anchors_ts ON anchors (ts)`,
		`CREATE TABLE IF NOT EXISTS surface_anchors (
			id TEXT PRIMARY KEY,
			message_text TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT 'general',
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			geohash TEXT NOT NULL,
			offset_x DOUBLE PRECISION NOT NULL DEFAULT 0,
			offset_y DOUBLE PRECISION NOT NULL DEFAULT 0,
			offset_z DOUBLE PRECISION NOT NULL DEFAULT 0,
			plane_type TEXT NOT NULL DEFAULT '',
			normal_x DOUBLE PRECISION NOT NULL DEFAULT 0,
			normal_y DOUBLE PRECISION NOT NULL DEFAULT 0,
			normal_z DOUBLE PRECISION NOT NULL DEFAULT 0,
			ts BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			role TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			last_login_at TIMESTAMPTZ
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}
