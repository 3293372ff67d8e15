package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// GetMigrations returns all schema migrations in order
func GetMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create users table",
			SQL: `
				CREATE TABLE IF NOT EXISTS users (
					id BIGSERIAL PRIMARY KEY,
					email VARCHAR(255) NOT NULL UNIQUE,
					display_name VARCHAR(255) NOT NULL,
					password_hash VARCHAR(255) NOT NULL,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_users_email ON users(email);
			`,
		},
		{
			Version:     2,
			Description: "Create clubs table",
			SQL: `
				CREATE TABLE IF NOT EXISTS clubs (
					id BIGSERIAL PRIMARY KEY,
					name VARCHAR(255) NOT NULL UNIQUE,
					description TEXT,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW()
				);
			`,
		},
		{
			Version:     3,
			Description: "Create memberships table",
			SQL: `
				CREATE TABLE IF NOT EXISTS memberships (
					id BIGSERIAL PRIMARY KEY,
					club_id BIGINT NOT NULL REFERENCES clubs(id) ON DELETE CASCADE,
					user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					role VARCHAR(20) NOT NULL,
					is_active BOOLEAN NOT NULL DEFAULT TRUE,
					invited_by BIGINT REFERENCES users(id) ON DELETE SET NULL,
					joined_at TIMESTAMP NOT NULL DEFAULT NOW(),
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
					UNIQUE(club_id, user_id)
				);

				CREATE INDEX idx_memberships_user_id ON memberships(user_id);
				CREATE INDEX idx_memberships_club_id ON memberships(club_id);
				CREATE INDEX idx_memberships_is_active ON memberships(is_active);
			`,
		},
		{
			Version:     4,
			Description: "Create club_invitations table",
			SQL: `
				CREATE TABLE IF NOT EXISTS club_invitations (
					id BIGSERIAL PRIMARY KEY,
					club_id BIGINT NOT NULL REFERENCES clubs(id) ON DELETE CASCADE,
					email VARCHAR(255) NOT NULL,
					role VARCHAR(20) NOT NULL,
					token VARCHAR(64) NOT NULL UNIQUE,
					invited_by BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					invited_at TIMESTAMP NOT NULL DEFAULT NOW(),
					expires_at TIMESTAMP NOT NULL,
					accepted_at TIMESTAMP,
					accepted_by BIGINT REFERENCES users(id) ON DELETE SET NULL,
					UNIQUE(club_id, email)
				);

				CREATE INDEX idx_club_invitations_token ON club_invitations(token);
				CREATE INDEX idx_club_invitations_expires_at ON club_invitations(expires_at);
			`,
		},
		{
			Version:     5,
			Description: "Create athletes table",
			SQL: `
				CREATE TABLE IF NOT EXISTS athletes (
					id BIGSERIAL PRIMARY KEY,
					club_id BIGINT NOT NULL REFERENCES clubs(id) ON DELETE CASCADE,
					first_name VARCHAR(255) NOT NULL,
					last_name VARCHAR(255) NOT NULL,
					date_of_birth DATE NOT NULL,
					gender VARCHAR(10) NOT NULL,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
					UNIQUE(club_id, first_name, last_name, date_of_birth)
				);

				CREATE INDEX idx_athletes_club_id ON athletes(club_id);
			`,
		},
		{
			Version:     6,
			Description: "Create disciplines and seasons tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS disciplines (
					id BIGSERIAL PRIMARY KEY,
					name VARCHAR(255) NOT NULL UNIQUE,
					measurement VARCHAR(10) NOT NULL,
					created_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE TABLE IF NOT EXISTS seasons (
					id BIGSERIAL PRIMARY KEY,
					name VARCHAR(255) NOT NULL UNIQUE,
					start_date DATE NOT NULL,
					end_date DATE NOT NULL,
					created_at TIMESTAMP NOT NULL DEFAULT NOW()
				);
			`,
		},
		{
			Version:     7,
			Description: "Create age_groups table",
			SQL: `
				CREATE TABLE IF NOT EXISTS age_groups (
					id BIGSERIAL PRIMARY KEY,
					club_id BIGINT NOT NULL REFERENCES clubs(id) ON DELETE CASCADE,
					name VARCHAR(255) NOT NULL,
					min_age INT NOT NULL,
					max_age INT NOT NULL,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					UNIQUE(club_id, name)
				);

				CREATE INDEX idx_age_groups_club_id ON age_groups(club_id);
			`,
		},
		{
			Version:     8,
			Description: "Create performances table",
			SQL: `
				CREATE TABLE IF NOT EXISTS performances (
					id BIGSERIAL PRIMARY KEY,
					club_id BIGINT NOT NULL REFERENCES clubs(id) ON DELETE CASCADE,
					athlete_id BIGINT NOT NULL REFERENCES athletes(id) ON DELETE CASCADE,
					discipline_id BIGINT NOT NULL REFERENCES disciplines(id) ON DELETE RESTRICT,
					season_id BIGINT NOT NULL REFERENCES seasons(id) ON DELETE RESTRICT,
					time_seconds DOUBLE PRECISION,
					distance_metres DOUBLE PRECISION,
					recorded_on DATE NOT NULL,
					notes TEXT,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
					UNIQUE(athlete_id, discipline_id, season_id, recorded_on)
				);

				CREATE INDEX idx_performances_club_id ON performances(club_id);
				CREATE INDEX idx_performances_athlete_id ON performances(athlete_id);
			`,
		},
		{
			Version:     9,
			Description: "Create audit_events table",
			SQL: `
				CREATE TABLE IF NOT EXISTS audit_events (
					id BIGSERIAL PRIMARY KEY,
					user_id BIGINT,
					club_id BIGINT,
					event_type VARCHAR(50) NOT NULL,
					capability VARCHAR(100),
					reason TEXT,
					request_id VARCHAR(64),
					path TEXT,
					created_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_audit_events_user_id ON audit_events(user_id);
				CREATE INDEX idx_audit_events_club_id ON audit_events(club_id);
				CREATE INDEX idx_audit_events_created_at ON audit_events(created_at);
			`,
		},
	}
}

// RunMigrations executes all pending migrations
func RunMigrations(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return fmt.Errorf("failed to query migrations: %w", err)
	}

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}
	rows.Close()

	for _, migration := range GetMigrations() {
		if applied[migration.Version] {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}

		if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %d: %w", migration.Version, err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schema_migrations (version, description) VALUES ($1, $2)",
			migration.Version, migration.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}
