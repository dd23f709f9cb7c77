package grep

import (
	"bytes"
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gnmapgrep/db"
	"gnmapgrep/internal/config"
	"gnmapgrep/internal/gnmap"
	"gnmapgrep/internal/history"
	"gnmapgrep/tests/testutils"
)

const sampleLine = "Host: 10.0.0.5 ()\tPorts: 80/open/tcp//http///, 22/open/tcp//ssh///\tIgnored: ..."

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scan.gnmap")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func baseConfig(path, substr string) *config.Config {
	return &config.Config{
		NmapOutPath:   path,
		ServiceSubstr: substr,
		Mode:          gnmap.SelectAllHosts,
		Dialect:       gnmap.DialectTab,
	}
}

func newService(cfg *config.Config, historyService *history.HistoryService, out io.Writer) *GrepService {
	return NewGrepService(cfg, historyService, out, log.New(io.Discard, "", 0))
}

func TestRun_EndToEnd(t *testing.T) {
	path := writeInput(t, sampleLine+"\n")

	tests := []struct {
		name   string
		substr string
		want   string
		count  int
	}{
		{"http matches http", "http", "10.0.0.5:80\n", 1},
		{"h matches http only here", "h", "10.0.0.5:80\n", 1},
		{"ssh matches ssh", "ssh", "10.0.0.5:22\n", 1},
		{"ftp matches nothing", "ftp", "", 0},
		{"empty substring selects all", "", "10.0.0.5:80\n10.0.0.5:22\n", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			count, err := newService(baseConfig(path, tt.substr), nil, &out).Run(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.count, count)
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestRun_MultiHost(t *testing.T) {
	path := writeInput(t, sampleLine+"\n"+
		"Host: 10.0.0.6 ()\tPorts: 443/open/tcp//https///\n")

	var out bytes.Buffer
	count, err := newService(baseConfig(path, "http"), nil, &out).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, "10.0.0.5:80\n10.0.0.6:443\n", out.String())
}

func TestRun_Idempotent(t *testing.T) {
	path := writeInput(t, sampleLine+"\n")
	cfg := baseConfig(path, "http")

	var first, second bytes.Buffer
	_, err := newService(cfg, nil, &first).Run(context.Background())
	require.NoError(t, err)
	_, err = newService(cfg, nil, &second).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.String(), second.String())
}

func TestRun_NoMarkerLines(t *testing.T) {
	path := writeInput(t, "# Nmap 7.94 scan initiated\n# Nmap done\n")

	var out bytes.Buffer
	_, err := newService(baseConfig(path, "http"), nil, &out).Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, out.String())
}

func TestRun_MarkerLinesWithoutPortEntries(t *testing.T) {
	path := writeInput(t, "Host: 10.0.0.5 ()\tPorts: \tIgnored: ...\n")

	var out bytes.Buffer
	count, err := newService(baseConfig(path, "http"), nil, &out).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, out.String())
}

func TestRun_MissingFile(t *testing.T) {
	cfg := baseConfig(filepath.Join(t.TempDir(), "missing.gnmap"), "http")

	var out bytes.Buffer
	_, err := newService(cfg, nil, &out).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading input file")
}

func TestRun_FirstHostMode(t *testing.T) {
	path := writeInput(t, sampleLine+"\n"+
		"Host: 10.0.0.6 ()\tPorts: 8080/open/tcp//http///\n")
	cfg := baseConfig(path, "http")
	cfg.Mode = gnmap.SelectFirstHost

	var out bytes.Buffer
	count, err := newService(cfg, nil, &out).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, "10.0.0.5:80\n", out.String())
}

func TestRun_FirstHostModeMissingHostMarker(t *testing.T) {
	path := writeInput(t, "Ports: 80/open/tcp//http///\n"+sampleLine+"\n")
	cfg := baseConfig(path, "http")
	cfg.Mode = gnmap.SelectFirstHost

	var out bytes.Buffer
	_, err := newService(cfg, nil, &out).Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, out.String())
}

func TestRun_StateFilter(t *testing.T) {
	path := writeInput(t, "Host: 10.0.0.5 ()\tPorts: 80/open/tcp//http///, 8080/closed/tcp//http///\n")
	cfg := baseConfig(path, "http")
	cfg.StateFilter = "open"

	var out bytes.Buffer
	count, err := newService(cfg, nil, &out).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, "10.0.0.5:80\n", out.String())
}

func TestRun_NoOutputWhenLaterHostFails(t *testing.T) {
	// A port-number failure on the second host must terminate the run
	// before the first host's records reach the output.
	path := writeInput(t, sampleLine+"\n"+
		"Host: 10.0.0.6 ()\tPorts: 99999999999999999999/open/tcp//http///\n")

	var out bytes.Buffer
	count, err := newService(baseConfig(path, "http"), nil, &out).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port number")
	assert.Zero(t, count)
	assert.Empty(t, out.String())
}

func TestRun_MalformedPortNumberFails(t *testing.T) {
	path := writeInput(t, "Host: 10.0.0.5 ()\tPorts: 99999999999999999999/open/tcp//http///\n")

	var out bytes.Buffer
	_, err := newService(baseConfig(path, "http"), nil, &out).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port number")
}

func TestRun_RecordsHistory(t *testing.T) {
	testDB, cleanup := testutils.SetupTestDatabase(t)
	defer cleanup()

	repo := db.NewSQLiteRunRepository(testDB)
	historyService := history.NewHistoryService(repo)

	path := writeInput(t, sampleLine+"\n")
	var out bytes.Buffer
	count, err := newService(baseConfig(path, "http"), historyService, &out).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, count)

	runs, err := repo.FindLatest(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, path, runs[0].InputPath)
	assert.Equal(t, "http", runs[0].ServiceSubstr)
	assert.Equal(t, 1, runs[0].MatchCount)

	matches, err := repo.FindMatchesByRunID(context.Background(), runs[0].ID)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "10.0.0.5", matches[0].Host)
	assert.Equal(t, 80, matches[0].Port)
	assert.Equal(t, "http", matches[0].Service)
	assert.Equal(t, "open", matches[0].State)
	assert.Equal(t, "tcp", matches[0].Protocol)
}
