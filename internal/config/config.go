package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config keys. Each doubles as the environment variable name.
const (
	KeyPort                = "PORT"
	KeyBind                = "BIND"
	KeyProtocol            = "PROTOCOL"
	KeyAPIRoot             = "API_ROOT"
	KeyDBPath              = "DB_PATH"
	KeyDBDatabase          = "DB_DATABASE"
	KeyDBHost              = "DB_HOST"
	KeyDBUser              = "DB_USER"
	KeyDBPassword          = "DB_PASSWORD"
	KeyCORSOrigins         = "CORS_ORIGINS"
	KeyCDGPath             = "CDG_PATH"
	KeyFaviconPath         = "FAVICON_PATH"
	KeyRequestTimeout      = "REQUEST_TIMEOUT"
	KeyLogLevel            = "LOG_LEVEL"
	KeyLogFile             = "LOG_FILE"
	KeyLogMaxSizeMB        = "LOG_MAX_SIZE_MB"
	KeyLogMaxBackups       = "LOG_MAX_BACKUPS"
	KeyLogMaxAgeDays       = "LOG_MAX_AGE_DAYS"
	KeyLogCompress         = "LOG_COMPRESS"
	KeyMaintenanceSchedule = "MAINTENANCE_SCHEDULE"
	KeyVacuumSchedule      = "VACUUM_SCHEDULE"
)

const (
	DefaultEnvFile             = ".env"
	DefaultProtocol            = "http"
	DefaultAPIRoot             = "/api/yokie"
	DefaultDBPath              = "./yokie.db"
	DefaultFaviconPath         = "./favicon.ico"
	DefaultRequestTimeout      = 60 * time.Second
	DefaultLogLevel            = "info"
	DefaultLogMaxSizeMB        = 50
	DefaultLogMaxBackups       = 5
	DefaultLogMaxAgeDays       = 30
	DefaultLogCompress         = true
	DefaultMaintenanceSchedule = "@daily"
	DefaultVacuumSchedule      = "@weekly"
)

// LogConfig controls console and rotating file logging
type LogConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Config is the server configuration
type Config struct {
	Port           int
	Bind           string
	Protocol       string
	APIRoot        string
	DBPath         string
	CORSOrigins    []string
	CDGPath        string
	FaviconPath    string
	RequestTimeout time.Duration

	// MaintenanceSchedule and VacuumSchedule are cron specs for PRAGMA
	// optimize and VACUUM; empty disables the task
	MaintenanceSchedule string
	VacuumSchedule      string

	Log LogConfig
}

// NewViper returns a viper instance reading the environment and, when it
// exists, the dotenv file at envFile. Environment variables win over the file.
func NewViper(envFile string) (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault(KeyProtocol, DefaultProtocol)
	v.SetDefault(KeyAPIRoot, DefaultAPIRoot)
	v.SetDefault(KeyFaviconPath, DefaultFaviconPath)
	v.SetDefault(KeyRequestTimeout, DefaultRequestTimeout)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyLogMaxSizeMB, DefaultLogMaxSizeMB)
	v.SetDefault(KeyLogMaxBackups, DefaultLogMaxBackups)
	v.SetDefault(KeyLogMaxAgeDays, DefaultLogMaxAgeDays)
	v.SetDefault(KeyLogCompress, DefaultLogCompress)
	v.SetDefault(KeyMaintenanceSchedule, DefaultMaintenanceSchedule)
	v.SetDefault(KeyVacuumSchedule, DefaultVacuumSchedule)

	v.AutomaticEnv()

	if envFile == "" {
		return v, nil
	}

	// A missing dotenv file is not an error
	if _, err := os.Stat(envFile); errors.Is(err, fs.ErrNotExist) {
		return v, nil
	}

	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read %s: %w", envFile, err)
	}

	return v, nil
}

// Load builds and validates a Config from v
func Load(v *viper.Viper) (*Config, error) {
	dbPath, err := DBPath(v)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:                v.GetInt(KeyPort),
		Bind:                strings.TrimSpace(v.GetString(KeyBind)),
		Protocol:            strings.ToLower(strings.TrimSpace(v.GetString(KeyProtocol))),
		APIRoot:             normalizeRoot(v.GetString(KeyAPIRoot)),
		DBPath:              dbPath,
		CORSOrigins:         splitList(v.GetString(KeyCORSOrigins)),
		CDGPath:             strings.TrimSpace(v.GetString(KeyCDGPath)),
		FaviconPath:         strings.TrimSpace(v.GetString(KeyFaviconPath)),
		RequestTimeout:      v.GetDuration(KeyRequestTimeout),
		MaintenanceSchedule: strings.TrimSpace(v.GetString(KeyMaintenanceSchedule)),
		VacuumSchedule:      strings.TrimSpace(v.GetString(KeyVacuumSchedule)),
		Log: LogConfig{
			Level:      strings.ToLower(strings.TrimSpace(v.GetString(KeyLogLevel))),
			File:       strings.TrimSpace(v.GetString(KeyLogFile)),
			MaxSizeMB:  v.GetInt(KeyLogMaxSizeMB),
			MaxBackups: v.GetInt(KeyLogMaxBackups),
			MaxAgeDays: v.GetInt(KeyLogMaxAgeDays),
			Compress:   v.GetBool(KeyLogCompress),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// serverDatabaseKeys configure a networked database server. They are
// rejected instead of ignored so an old deployment never starts on an
// empty library file.
var serverDatabaseKeys = []string{KeyDBHost, KeyDBUser, KeyDBPassword, KeyDBDatabase}

// DBPath resolves the SQLite file from DB_PATH. It fails when any database
// server setting is present.
func DBPath(v *viper.Viper) (string, error) {
	var found []string
	for _, key := range serverDatabaseKeys {
		if strings.TrimSpace(v.GetString(key)) != "" {
			found = append(found, key)
		}
	}
	if len(found) > 0 {
		return "", fmt.Errorf("%s not supported: the library is a SQLite file, set %s to its path and remove them",
			strings.Join(found, ", "), KeyDBPath)
	}

	if path := strings.TrimSpace(v.GetString(KeyDBPath)); path != "" {
		return path, nil
	}
	return DefaultDBPath, nil
}

// Validate checks the configuration for values the server cannot start with
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%s must be between 1 and 65535, got %d", KeyPort, c.Port)
	}
	if c.Protocol != "http" && c.Protocol != "https" {
		return fmt.Errorf("%s must be http or https, got %q", KeyProtocol, c.Protocol)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%s must be positive", KeyRequestTimeout)
	}
	return nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Bind, c.Port)
}

func normalizeRoot(root string) string {
	root = strings.Trim(strings.TrimSpace(root), "/")
	if root == "" {
		return ""
	}
	return "/" + root
}

func splitList(value string) []string {
	var out []string
	for item := range strings.SplitSeq(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
