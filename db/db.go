package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // Import postgres driver
)

func Connect(dsn string, timeout time.Duration) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create database handle: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify the connection with a timeout
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err = db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close database handle: %w", closeErr))
		}
		return nil, fmt.Errorf("failed to ping database within %v: %w", timeout, err)
	}

	return db, nil
}

// Schema creates the tables used by the repositories. Constraint names are
// relied upon by the repositories' error mapping.
const Schema = `
CREATE TABLE IF NOT EXISTS tournaments (
	name        TEXT        NOT NULL,
	players     TEXT[]      NOT NULL DEFAULT '{}',
	capacity    INTEGER     NOT NULL CHECK (capacity > 0),
	min_rating  INTEGER,
	max_rating  INTEGER,
	category    TEXT,
	created_by  TEXT        NOT NULL DEFAULT '',
	bracket     JSONB       NOT NULL DEFAULT '[]',
	version     INTEGER     NOT NULL DEFAULT 1,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT tournaments_pkey PRIMARY KEY (name)
);

CREATE TABLE IF NOT EXISTS matches (
	id              TEXT        NOT NULL,
	tournament_name TEXT        NOT NULL,
	players         TEXT[]      NOT NULL,
	sets            JSONB       NOT NULL DEFAULT '[]',
	winner          TEXT,
	completed       BOOLEAN     NOT NULL DEFAULT FALSE,
	start_time      TIMESTAMPTZ,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT matches_pkey PRIMARY KEY (id),
	CONSTRAINT matches_tournament_name_fkey FOREIGN KEY (tournament_name)
		REFERENCES tournaments (name) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS players (
	id            SERIAL      NOT NULL,
	name          TEXT        NOT NULL,
	email         TEXT        NOT NULL,
	password_hash TEXT        NOT NULL,
	role          TEXT        NOT NULL DEFAULT 'player',
	rating        INTEGER     NOT NULL DEFAULT 1200,
	category      TEXT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT players_pkey PRIMARY KEY (id),
	CONSTRAINT players_name_key UNIQUE (name),
	CONSTRAINT players_email_key UNIQUE (email)
);

CREATE TABLE IF NOT EXISTS rating_changes (
	match_id    TEXT        NOT NULL,
	player_name TEXT        NOT NULL,
	old_rating  INTEGER     NOT NULL,
	new_rating  INTEGER     NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT rating_changes_pkey PRIMARY KEY (match_id, player_name),
	CONSTRAINT rating_changes_player_name_fkey FOREIGN KEY (player_name)
		REFERENCES players (name) ON UPDATE CASCADE
);
`

// Migrate applies Schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
