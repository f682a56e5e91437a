package tally

import (
	"os"

	"github.com/hyperengineering/tally/internal/store"
)

// Config configures the tally client.
type Config struct {
	// LocalPath is the path to the local SQLite database.
	// Defaults to ~/.tally/tally.db.
	LocalPath string

	// RemoteURL is the endpoint of the remote SurrealDB backend.
	// If empty, the client operates in local-only mode.
	RemoteURL string

	// Namespace and Database select the remote namespace/database pair.
	Namespace string
	Database  string

	// Username and Password authenticate against the remote backend.
	Username string
	Password string

	// UserID is the owning identity for remote records. Typically supplied
	// by the session provider; set here for headless use.
	UserID string

	// Debug enables verbose logging of backend routing and sync activity.
	Debug bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LocalPath: store.DefaultDBPath(),
		Namespace: "tally",
		Database:  "habits",
	}
}

// ConfigFromEnv reads configuration from environment variables.
//
//	TALLY_DB_PATH     → LocalPath
//	TALLY_REMOTE_URL  → RemoteURL
//	TALLY_REMOTE_NS   → Namespace
//	TALLY_REMOTE_DB   → Database
//	TALLY_REMOTE_USER → Username
//	TALLY_REMOTE_PASS → Password
//	TALLY_USER_ID     → UserID
//	TALLY_DEBUG       → Debug (any non-empty value enables)
func ConfigFromEnv() Config {
	return Config{
		LocalPath: os.Getenv("TALLY_DB_PATH"),
		RemoteURL: os.Getenv("TALLY_REMOTE_URL"),
		Namespace: os.Getenv("TALLY_REMOTE_NS"),
		Database:  os.Getenv("TALLY_REMOTE_DB"),
		Username:  os.Getenv("TALLY_REMOTE_USER"),
		Password:  os.Getenv("TALLY_REMOTE_PASS"),
		UserID:    os.Getenv("TALLY_USER_ID"),
		Debug:     os.Getenv("TALLY_DEBUG") != "",
	}
}

// Validate checks the configuration for errors.
// Returns *ValidationError for invalid fields.
func (c *Config) Validate() error {
	if c.LocalPath == "" {
		return &ValidationError{Field: "LocalPath", Message: "required: path to SQLite database"}
	}
	if c.RemoteURL != "" {
		if c.Namespace == "" {
			return &ValidationError{Field: "Namespace", Message: "required when RemoteURL is set"}
		}
		if c.Database == "" {
			return &ValidationError{Field: "Database", Message: "required when RemoteURL is set"}
		}
	}
	return nil
}

// HasRemoteCredentials reports whether a remote backend is configured.
// Together with the session's authentication state this feeds the backend
// selector.
func (c *Config) HasRemoteCredentials() bool {
	return c.RemoteURL != "" && c.Namespace != "" && c.Database != ""
}

// IsOffline reports whether the client operates in local-only mode.
func (c *Config) IsOffline() bool {
	return c.RemoteURL == ""
}

// WithDefaults fills in default values for unset fields.
func (c Config) WithDefaults() Config {
	defaults := DefaultConfig()
	if c.LocalPath == "" {
		c.LocalPath = defaults.LocalPath
	}
	if c.Namespace == "" {
		c.Namespace = defaults.Namespace
	}
	if c.Database == "" {
		c.Database = defaults.Database
	}
	return c
}
