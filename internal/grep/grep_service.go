// Package grep orchestrates the parse-filter-format pipeline over one
// Nmap greppable output file.
package grep

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"gnmapgrep/internal/config"
	"gnmapgrep/internal/gnmap"
	"gnmapgrep/internal/history"
	"gnmapgrep/models"
)

// GrepService struct
type GrepService struct {
	Config         *config.Config
	HistoryService *history.HistoryService
	Out            io.Writer
	Debug          *log.Logger
}

// NewGrepService creates a new GrepService. historyService may be nil
// when run recording is disabled.
func NewGrepService(cfg *config.Config, historyService *history.HistoryService, out io.Writer, debug *log.Logger) *GrepService {
	return &GrepService{
		Config:         cfg,
		HistoryService: historyService,
		Out:            out,
		Debug:          debug,
	}
}

// Run executes the pipeline and returns the number of records written.
// An empty result is not an error; the caller decides how to report it.
func (s *GrepService) Run(ctx context.Context) (int, error) {
	s.Debug.Printf("Reading input file %q", s.Config.NmapOutPath)
	data, err := os.ReadFile(s.Config.NmapOutPath)
	if err != nil {
		return 0, fmt.Errorf("reading input file: %w", err)
	}

	lines, err := gnmap.SelectHostPortLines(string(data), s.Config.Mode, s.Config.NmapOutPath)
	if err != nil {
		return 0, err
	}
	s.Debug.Printf("Found %d Host/Port lines", len(lines))

	// Parse every selected line before writing anything: a parse failure
	// on a later host must terminate the run with no partial output.
	var matches []models.Match
	var records []string
	for _, line := range lines {
		host, err := gnmap.Host(line)
		if err != nil {
			return 0, err
		}
		s.Debug.Printf("Host: %s", host)

		entries, err := s.Config.Dialect.ParsePorts(line)
		if err != nil {
			return 0, err
		}
		entries = s.filterState(entries)
		for _, entry := range entries {
			s.Debug.Printf("Port entry: %+v", entry)
		}

		index := gnmap.BuildServiceIndex(entries)
		s.Debug.Printf("Services: %v", index.Services())

		ports := index.PortsMatching(s.Config.ServiceSubstr)
		records = append(records, gnmap.FormatHostPorts(host, ports)...)
		matches = append(matches, hostMatches(host, entries, index, s.Config.ServiceSubstr)...)
	}

	// One write per record so downstream pipes see whole lines.
	for _, record := range records {
		if _, err := fmt.Fprintln(s.Out, record); err != nil {
			return 0, fmt.Errorf("writing output: %w", err)
		}
	}

	if s.HistoryService != nil {
		run, err := s.HistoryService.RecordRun(ctx, s.Config.NmapOutPath, s.Config.ServiceSubstr, matches)
		if err != nil {
			return len(matches), err
		}
		s.Debug.Printf("Recorded run %s", run.ID)
	}

	return len(matches), nil
}

func (s *GrepService) filterState(entries []models.Port) []models.Port {
	if s.Config.StateFilter == "" {
		return entries
	}
	var kept []models.Port
	for _, entry := range entries {
		if entry.State == s.Config.StateFilter {
			kept = append(kept, entry)
		}
	}
	return kept
}

// hostMatches expands the matched services of one host back into full
// match records, in the same order the output records were written.
func hostMatches(host string, entries []models.Port, index *gnmap.ServiceIndex, substr string) []models.Match {
	var matches []models.Match
	for _, service := range index.ServicesMatching(substr) {
		for _, entry := range entries {
			if entry.Service != service {
				continue
			}
			matches = append(matches, models.Match{
				Host:     host,
				Port:     entry.Number,
				Protocol: entry.Protocol,
				State:    entry.State,
				Service:  entry.Service,
			})
		}
	}
	return matches
}
