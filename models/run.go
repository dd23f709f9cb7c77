package models

import "time"

// Run records one invocation of the grep pipeline in the history store.
type Run struct {
	ID            string    `json:"id"`
	InputPath     string    `json:"input_path"`
	ServiceSubstr string    `json:"service_substr"`
	MatchCount    int       `json:"match_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// Match is a single host:port record emitted by a run.
type Match struct {
	RunID    string `json:"run_id"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Protocol string `json:"protocol"`
	State    string `json:"state"`
	Service  string `json:"service"`
}
