package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Catalog  CatalogConfig  `mapstructure:"catalog"  validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`

	// StaticDir is the directory the schedule-builder UI bundle is served
	// from. Empty disables static serving (API only).
	StaticDir string `mapstructure:"static_dir"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains all authentication and session settings.
type AuthConfig struct {
	// BcryptCost is the work factor for password hashing.
	BcryptCost int `mapstructure:"bcrypt_cost" validate:"required,gte=4,lte=31"`

	// SessionLifetimeMinutes is the absolute lifetime of a session from issuance.
	SessionLifetimeMinutes int `mapstructure:"session_lifetime_minutes" validate:"required,gt=0"`

	// SessionIdleMinutes is the sliding idle window; a session not seen for
	// this long is rejected even before its absolute expiry.
	SessionIdleMinutes int `mapstructure:"session_idle_minutes" validate:"required,gt=0"`

	// SessionPurgeMinutes is how often the background sweep deletes
	// sessions past their absolute expiry.
	SessionPurgeMinutes int `mapstructure:"session_purge_minutes" validate:"required,gt=0"`

	// ShareLinkSecret signs schedule share-link tokens.
	ShareLinkSecret string `mapstructure:"share_link_secret" validate:"required,min=32"`

	// ShareLinkTTLMinutes is how long a minted share link stays valid.
	ShareLinkTTLMinutes int `mapstructure:"share_link_ttl_minutes" validate:"required,gt=0"`
}

// CatalogConfig contains settings for catalog feed imports.
type CatalogConfig struct {
	// ImportQueueSize is the capacity of the background import queue.
	ImportQueueSize int `mapstructure:"import_queue_size" validate:"required,gt=0"`

	// ImportWorkers is the number of concurrent import workers.
	ImportWorkers int `mapstructure:"import_workers" validate:"required,gt=0"`
}
