package config

import (
	"time"

	"diveanalytics-backend/internal/telemetry"
	"diveanalytics-backend/lib/configutil"
)

type Site struct {
	// BaseURL is prefixed to every relative page reference.
	BaseURL    string `json:"base_url"`
	RosterPath string `json:"roster_path"`
	// HistoryPath, when set, is a format string taking the diver id for a
	// separate result history page. Empty means the profile page carries
	// the history table.
	HistoryPath      string `json:"history_path"`
	UserAgent        string `json:"user_agent"`
	TimeoutSeconds   int    `json:"timeout_seconds"`
	CloudflareBypass bool   `json:"cloudflare_bypass"`
	// DumpDir receives full request/response dumps in verbose mode.
	DumpDir string `json:"dump_dir"`
}

func (s Site) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

type Pool struct {
	Divers  int `json:"divers"`
	Details int `json:"details"`
}

type Store struct {
	// Driver is one of sqlite, libsql, badger or mongo.
	Driver string `json:"driver"`
	// Path is the sqlite file or badger directory, `<dev_state>` is expanded.
	Path      string `json:"path"`
	URL       string `json:"url"`
	AuthToken string `json:"auth_token"`
	Database  string `json:"database"`
}

type Server struct {
	Port int `json:"port"`
	// Cron schedules periodic imports while serving, empty disables it.
	Cron string `json:"cron"`
}

type Config struct {
	Site      Site             `json:"site"`
	Pool      Pool             `json:"pool"`
	Store     Store            `json:"store"`
	Server    Server           `json:"server"`
	Telemetry telemetry.Config `json:"telemetry"`
}

func Default() Config {
	return Config{
		Site: Site{
			BaseURL:        "https://secure.meetcontrol.com/divemeets/system/",
			RosterPath:     "profilet.php?number=2303",
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
			TimeoutSeconds: 30,
			DumpDir:        "<dev_state>/http_dumps",
		},
		Pool: Pool{
			Divers:  8,
			Details: 5,
		},
		Store: Store{
			Driver:   "sqlite",
			Path:     "<dev_state>/divemeets.db",
			Database: "divemeets",
		},
		Server: Server{
			Port: 8111,
			Cron: "0 6 * * *",
		},
	}
}

// Load reads the json5 config at path together with its `.local` override,
// fields left unset take their value from Default. A missing file is not an
// error.
func Load(path string) (Config, error) {
	return configutil.ReadWithDefaults(path, Default())
}
