package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"gnmapgrep/internal/gnmap"
)

// Config holds the options of one run, resolved from command-line flags
// with environment fallbacks.
type Config struct {
	NmapOutPath   string
	ServiceSubstr string
	Mode          gnmap.SelectionMode
	Dialect       gnmap.Dialect
	StateFilter   string
	HistoryDBPath string
	ShowHistory   int
	Verbosity     int
}

// LoadConfig parses args into a Config. A .env file in the working
// directory, when present, seeds environment variables (NMAP_OUT,
// SERVICE_SUBSTR, SELECTION_MODE, DIALECT, STATE_FILTER, HISTORY_DB,
// VERBOSITY) that act as flag defaults; explicit flags win.
func LoadConfig(args []string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	fs := flag.NewFlagSet("gnmapgrep", flag.ContinueOnError)
	nmapOut := fs.String("nmap_out", os.Getenv("NMAP_OUT"), "Path to the file written by nmap -oG. Required.")
	serviceSubstr := fs.String("service_substr", os.Getenv("SERVICE_SUBSTR"), "Service name substring to filter for, e.g. 'http'. Required; empty selects every service.")
	mode := fs.String("mode", getEnv("SELECTION_MODE", "all"), "Host line selection: 'all' or 'first'.")
	dialect := fs.String("dialect", getEnv("DIALECT", "tab"), "Port entry parsing: 'tab' or 'whitespace'.")
	state := fs.String("state", os.Getenv("STATE_FILTER"), "Keep only ports in this state, e.g. 'open'. Empty keeps all states.")
	historyDB := fs.String("history_db", os.Getenv("HISTORY_DB"), "SQLite file recording run history. Empty disables recording.")
	showHistory := fs.Int("show_history", 0, "Print the N most recent recorded runs and exit.")
	verbosity := fs.Int("v", getEnvInt("VERBOSITY", 0), "Log verbosity; 1 enables debug logging.")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := &Config{
		NmapOutPath:   *nmapOut,
		ServiceSubstr: *serviceSubstr,
		StateFilter:   *state,
		HistoryDBPath: *historyDB,
		ShowHistory:   *showHistory,
		Verbosity:     *verbosity,
	}

	var err error
	if cfg.Mode, err = gnmap.ParseSelectionMode(*mode); err != nil {
		return nil, err
	}
	if cfg.Dialect, err = gnmap.ParseDialect(*dialect); err != nil {
		return nil, err
	}

	if cfg.ShowHistory > 0 {
		if cfg.HistoryDBPath == "" {
			return nil, fmt.Errorf("-show_history requires -history_db")
		}
		// History listing does not scan, so the scan options are not
		// required.
		return cfg, nil
	}

	if cfg.NmapOutPath == "" {
		return nil, fmt.Errorf("-nmap_out is required")
	}
	// The empty substring is a valid select-all filter, so requiredness
	// means "explicitly provided", not "non-empty".
	provided := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { provided[f.Name] = true })
	if !provided["service_substr"] {
		if _, ok := os.LookupEnv("SERVICE_SUBSTR"); !ok {
			return nil, fmt.Errorf("-service_substr is required (pass an empty value to select every service)")
		}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}
