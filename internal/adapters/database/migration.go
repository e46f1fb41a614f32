package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'volunteer', 'admin')),
		is_available BOOLEAN NOT NULL DEFAULT TRUE,
		banned BOOLEAN NOT NULL DEFAULT FALSE,
		rating DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (rating >= 0 AND rating <= 5),
		total_calls INTEGER NOT NULL DEFAULT 0 CHECK (total_calls >= 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_active_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_users_available_volunteers ON users (rating DESC) WHERE role = 'volunteer' AND is_available AND NOT banned`,
	`CREATE TABLE IF NOT EXISTS requests (
		id UUID PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id),
		volunteer_id BIGINT REFERENCES users(id),
		description TEXT NOT NULL DEFAULT '',
		type TEXT CHECK (type IN ('read', 'describe', 'navigate', 'other')),
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		address TEXT,
		district TEXT,
		when_needed TIMESTAMPTZ,
		status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'accepted', 'active', 'completed', 'cancelled')),
		rating INTEGER CHECK (rating BETWEEN 1 AND 5),
		comment TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		completed_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_requests_status_created ON requests (status, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_requests_user ON requests (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_requests_volunteer ON requests (volunteer_id)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id UUID PRIMARY KEY,
		request_id UUID NOT NULL REFERENCES requests(id),
		volunteer_id BIGINT NOT NULL REFERENCES users(id),
		user_id BIGINT NOT NULL REFERENCES users(id),
		room_id TEXT NOT NULL,
		kind TEXT NOT NULL DEFAULT 'video' CHECK (kind IN ('video', 'call')),
		status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'completed')),
		started_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		ended_at TIMESTAMPTZ,
		duration INTEGER CHECK (duration >= 0),
		rating INTEGER CHECK (rating BETWEEN 1 AND 5),
		feedback TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_active ON sessions (started_at) WHERE status = 'active'`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_volunteer ON sessions (volunteer_id)`,
	`CREATE TABLE IF NOT EXISTS reports (
		id UUID PRIMARY KEY,
		reporter_id BIGINT NOT NULL REFERENCES users(id),
		request_id UUID REFERENCES requests(id),
		session_id UUID REFERENCES sessions(id),
		reason TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'in_review', 'resolved', 'rejected')),
		resolution TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		resolved_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reports_status ON reports (status, created_at)`,
}

// RunMigration creates the schema if it does not exist yet. Every statement is
// idempotent so it runs on each startup.
func RunMigration(ctx context.Context, db *sql.DB) error {
	for i, s := range migrationStatements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration statement %d failed: %w", i+1, err)
		}
	}
	return nil
}
