package driven

import "time"

// ConfigStore provides access to application configuration.
// Keys are dotted paths ("retrieval.top_k") mapping onto nested tables.
type ConfigStore interface {
	// Get retrieves a configuration value by key.
	// Returns the value and a boolean indicating if the key exists.
	Get(key string) (any, bool)

	// GetString retrieves a string value, or "" if absent or not a string.
	GetString(key string) string

	// GetInt retrieves an integer value, or 0 if absent or not an integer.
	GetInt(key string) int

	// GetBool retrieves a boolean value, or false if absent or not a boolean.
	GetBool(key string) bool

	// GetStringSlice retrieves a string slice, or nil if absent.
	GetStringSlice(key string) []string

	// GetDuration parses a duration string ("24h"), or returns 0.
	GetDuration(key string) time.Duration

	// Set stores a value and persists immediately.
	Set(key string, value any) error

	// Save persists the current configuration to storage.
	Save() error

	// Load reads configuration from storage.
	Load() error

	// Path returns the configuration file path.
	Path() string
}
