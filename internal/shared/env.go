package shared

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables that override config file values.
const (
	EnvEndpointURL   = "SETLIST_ENDPOINT"
	EnvAdminUsername = "SETLIST_ADMIN_USERNAME"
	EnvAdminPassword = "SETLIST_ADMIN_PASSWORD"
	EnvDatabasePath  = "SETLIST_DATABASE"
	EnvServerPort    = "SETLIST_PORT"
	EnvLogLevel      = "SETLIST_LOG_LEVEL"
)

// LoadDotEnv loads variables from the given .env files without overwriting ones already set.
//
// Missing files are not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	var present []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			present = append(present, p)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to stat %s: %w", p, err)
		}
	}
	if len(present) == 0 {
		return nil
	}

	if err := godotenv.Load(present...); err != nil {
		return fmt.Errorf("failed to load env files: %w", err)
	}
	return nil
}

// ApplyEnv overrides config values from SETLIST_* environment variables.
func ApplyEnv(c *Config) {
	if v := os.Getenv(EnvEndpointURL); v != "" {
		c.Endpoint.URL = v
	}
	if v := os.Getenv(EnvAdminUsername); v != "" {
		c.Admin.Username = v
	}
	if v := os.Getenv(EnvAdminPassword); v != "" {
		c.Admin.Password = v
	}
	if v := os.Getenv(EnvDatabasePath); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv(EnvServerPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
}
