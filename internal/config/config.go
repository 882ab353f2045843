package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Study    StudyConfig    `mapstructure:"study" validate:"required"`
	Import   ImportConfig   `mapstructure:"import" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port      int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel  string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" validate:"required,oneof=json text"`
	// SessionIdleTimeout closes a question browsing session left unused this long.
	SessionIdleTimeout time.Duration `mapstructure:"session_idle_timeout" validate:"gt=0"`
	// MaxSessions caps the open sessions; opening one more closes the least recently used.
	MaxSessions int `mapstructure:"max_sessions" validate:"gte=1"`
}

// DatabaseConfig selects and configures the storage backend.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=postgres sqlite memory"`
	// URL is the Postgres connection string; only used by the postgres driver.
	URL string `mapstructure:"url" validate:"required_if=Driver postgres,omitempty,url"`
	// Path is the SQLite database file; only used by the sqlite driver.
	Path string `mapstructure:"path" validate:"required_if=Driver sqlite"`
	// SeedStarterData inserts the sample subjects into an empty store on startup.
	SeedStarterData bool `mapstructure:"seed_starter_data"`
}

// StudyConfig holds the study preferences that used to live in app settings.
type StudyConfig struct {
	SubjectOrder        string `mapstructure:"subject_order" validate:"required,oneof=alpha new_first old_first"`
	DefaultQuestionText string `mapstructure:"default_question_text"`
}

// ImportConfig configures the remote subject/question source.
type ImportConfig struct {
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Workers int           `mapstructure:"workers" validate:"gte=1,lte=16"`
	// Retries is how many times a transient fetch failure is retried.
	Retries uint64 `mapstructure:"retries" validate:"lte=5"`
}
