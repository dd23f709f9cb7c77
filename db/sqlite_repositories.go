package db

import (
	"context"
	"database/sql"
	"fmt"

	"gnmapgrep/models"
)

// SQLiteRunRepository implements the RunRepository interface for SQLite
type SQLiteRunRepository struct {
	db *sql.DB
}

// NewSQLiteRunRepository creates a new SQLiteRunRepository
func NewSQLiteRunRepository(db *sql.DB) *SQLiteRunRepository {
	return &SQLiteRunRepository{db: db}
}

// Close closes the database connection
func (r *SQLiteRunRepository) Close() error {
	return r.db.Close()
}

// Create stores a run and its matches in a single transaction
func (r *SQLiteRunRepository) Create(ctx context.Context, run *models.Run, matches []models.Match) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, input_path, service_substr, match_count, created_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.InputPath, run.ServiceSubstr, run.MatchCount, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("error inserting run: %w", err)
	}

	for _, match := range matches {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO matches (run_id, host, port, protocol, state, service) VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID, match.Host, match.Port, match.Protocol, match.State, match.Service)
		if err != nil {
			return fmt.Errorf("error inserting match: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing run: %w", err)
	}
	return nil
}

// FindByID finds a run by ID
func (r *SQLiteRunRepository) FindByID(ctx context.Context, id string) (*models.Run, error) {
	query := `SELECT id, input_path, service_substr, match_count, created_at FROM runs WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	var run models.Run
	err := row.Scan(&run.ID, &run.InputPath, &run.ServiceSubstr, &run.MatchCount, &run.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error scanning run: %w", err)
	}

	return &run, nil
}

// FindLatest finds the most recent runs, newest first
func (r *SQLiteRunRepository) FindLatest(ctx context.Context, limit int) ([]*models.Run, error) {
	query := `SELECT id, input_path, service_substr, match_count, created_at FROM runs ORDER BY created_at DESC, id LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		var run models.Run
		if err := rows.Scan(&run.ID, &run.InputPath, &run.ServiceSubstr, &run.MatchCount, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning run: %w", err)
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// FindMatchesByRunID finds all matches recorded for a run, in insert order
func (r *SQLiteRunRepository) FindMatchesByRunID(ctx context.Context, runID string) ([]*models.Match, error) {
	query := `SELECT run_id, host, port, protocol, state, service FROM matches WHERE run_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("error querying matches: %w", err)
	}
	defer rows.Close()

	var matches []*models.Match
	for rows.Next() {
		var match models.Match
		if err := rows.Scan(&match.RunID, &match.Host, &match.Port, &match.Protocol, &match.State, &match.Service); err != nil {
			return nil, fmt.Errorf("error scanning match: %w", err)
		}
		matches = append(matches, &match)
	}
	return matches, rows.Err()
}
