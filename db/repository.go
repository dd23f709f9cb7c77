package db

import (
	"context"
	"errors"

	"gnmapgrep/models"
)

var (
	ErrNotFound = errors.New("record not found")
)

// Repository defines a common interface for all repositories
type Repository interface {
	Close() error
}

// RunRepository defines the interface for run history operations
type RunRepository interface {
	Repository
	Create(ctx context.Context, run *models.Run, matches []models.Match) error
	FindByID(ctx context.Context, id string) (*models.Run, error)
	FindLatest(ctx context.Context, limit int) ([]*models.Run, error)
	FindMatchesByRunID(ctx context.Context, runID string) ([]*models.Match, error)
}
