package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
)

// Open connects to the Supabase Postgres database and checks the connection.
func Open(ctx context.Context, dsn, environment string, logger zerolog.Logger) (*sql.DB, error) {
	dsn = prepareDSN(dsn, environment)

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open DB connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	logger.Info().Msg("Database connection successful")

	// Lookups are single-row; a small pool is plenty.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return db, nil
}

// prepareDSN adjusts the connection string for the target environment.
// In development SSL is disabled unless the DSN says otherwise. Everywhere
// else the connection goes through Supabase's transaction pooler, which does
// not support server-side prepared statements, so the simple query protocol
// is forced.
func prepareDSN(dsn, environment string) string {
	isURL := strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
	appendParam := func(param string) {
		switch {
		case !isURL:
			dsn += " " + param
		case strings.Contains(dsn, "?"):
			dsn += "&" + param
		default:
			dsn += "?" + param
		}
	}

	if environment == "development" {
		if !strings.Contains(dsn, "sslmode") {
			appendParam("sslmode=disable")
		}
		return dsn
	}
	if !strings.Contains(dsn, "default_query_exec_mode") {
		appendParam("default_query_exec_mode=simple_protocol")
	}
	return dsn
}
