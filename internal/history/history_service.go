// Package history records grep runs and their matches in SQLite.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gnmapgrep/db"
	"gnmapgrep/models"
)

// HistoryService struct
type HistoryService struct {
	Repo db.RunRepository
}

// NewHistoryService creates a new HistoryService
func NewHistoryService(repo db.RunRepository) *HistoryService {
	return &HistoryService{Repo: repo}
}

// RecordRun stores one completed run together with its matches and
// returns the stored run.
func (s *HistoryService) RecordRun(ctx context.Context, inputPath, serviceSubstr string, matches []models.Match) (*models.Run, error) {
	run := &models.Run{
		ID:            uuid.New().String(),
		InputPath:     inputPath,
		ServiceSubstr: serviceSubstr,
		MatchCount:    len(matches),
		CreatedAt:     time.Now().UTC(),
	}
	// Stamp the run ID on a copy so the caller's slice stays untouched.
	tagged := make([]models.Match, len(matches))
	copy(tagged, matches)
	for i := range tagged {
		tagged[i].RunID = run.ID
	}
	if err := s.Repo.Create(ctx, run, tagged); err != nil {
		return nil, fmt.Errorf("recording run: %w", err)
	}
	return run, nil
}

// RecentRuns returns up to limit recorded runs, newest first.
func (s *HistoryService) RecentRuns(ctx context.Context, limit int) ([]*models.Run, error) {
	return s.Repo.FindLatest(ctx, limit)
}

// Summarize renders a run as a single line for history listings.
func Summarize(run *models.Run) string {
	return fmt.Sprintf("%s  %s  nmap_out=%s service_substr=%q matches=%d",
		run.CreatedAt.Format(time.RFC3339), run.ID, run.InputPath, run.ServiceSubstr, run.MatchCount)
}
