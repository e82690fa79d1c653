// internal/config/config.go
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrNotConfigured marks a cycle skipped because a required setting is empty.
var ErrNotConfigured = errors.New("not configured")

const (
	DefaultIntervalSeconds = 60
	DefaultCRMEndpoint     = "https://api.hubapi.com/crm/v3/objects/contacts"
	DefaultCredentialsFile = "credentials.json"
	DefaultPort            = 8080
)

type Config struct {
	App struct {
		Port    int    `yaml:"port"`
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	Sheets struct {
		SpreadsheetID   string `yaml:"spreadsheet_id"`
		SheetName       string `yaml:"sheet_name"`
		CredentialsFile string `yaml:"credentials_file"`
		Endpoint        string `yaml:"endpoint"` // empty = Google default

		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
	} `yaml:"sheets"`

	CRM struct {
		Endpoint          string  `yaml:"endpoint"`
		Token             string  `yaml:"token"`
		KeyringAccount    string  `yaml:"keyring_account"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
		TimeoutSeconds    int     `yaml:"timeout_seconds"`
	} `yaml:"crm"`

	Polling struct {
		IntervalSeconds int `yaml:"interval_seconds"`
	} `yaml:"polling"`

	Ledger struct {
		Enabled       bool `yaml:"enabled"`
		RetentionDays int  `yaml:"retention_days"`
	} `yaml:"ledger"`
}

func Default() Config {
	var cfg Config
	cfg.App.Port = DefaultPort
	cfg.App.DataDir = "."
	cfg.Sheets.CredentialsFile = defaultCredentialsPath()
	cfg.Sheets.RequestsPerSecond = 1 // read quota is 60/min per user
	cfg.Sheets.Burst = 2
	cfg.CRM.Endpoint = DefaultCRMEndpoint
	cfg.CRM.RequestsPerSecond = 5
	cfg.CRM.Burst = 5
	cfg.CRM.TimeoutSeconds = 30
	cfg.Polling.IntervalSeconds = DefaultIntervalSeconds
	cfg.Ledger.Enabled = true
	cfg.Ledger.RetentionDays = 30
	return cfg
}

// Load reads path over the defaults, then applies env overrides.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func (c Config) Interval() time.Duration {
	return time.Duration(c.Polling.IntervalSeconds) * time.Second
}

func (c Config) CRMTimeout() time.Duration {
	return time.Duration(c.CRM.TimeoutSeconds) * time.Second
}

func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.App.Port)
}

func applyEnv(cfg *Config) {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	str("OUTREACH_SPREADSHEET_ID", &cfg.Sheets.SpreadsheetID)
	str("OUTREACH_SHEET_NAME", &cfg.Sheets.SheetName)
	str("OUTREACH_CREDENTIALS_FILE", &cfg.Sheets.CredentialsFile)
	str("OUTREACH_DATA_DIR", &cfg.App.DataDir)
	str("HUBSPOT_TOKEN", &cfg.CRM.Token)

	if v := os.Getenv("OUTREACH_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.App.Port = p
		}
	}
}

// credentials.json lives next to the binary unless configured otherwise.
func defaultCredentialsPath() string {
	exe, err := os.Executable()
	if err != nil {
		return DefaultCredentialsFile
	}
	return filepath.Join(filepath.Dir(exe), DefaultCredentialsFile)
}
