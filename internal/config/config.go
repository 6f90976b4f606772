package config

import (
	"time"
)

// App holds application-wide identity and access settings.
type App struct {
	// Version is the semantic version string of the running bot,
	// shown in the main menu and the /dev reply.
	// Env: APP_VERSION
	Version string `env:"VERSION"`

	// Admins lists chat-platform user ids with administrative rights.
	// A banned user is rejected even when listed here.
	// Env: APP_ADMINS (comma-separated)
	Admins []int64 `env:"ADMINS"`

	// Owners lists user ids with full rights (broadcast, user listing).
	// Owners are implicitly admins.
	// Env: APP_OWNERS (comma-separated)
	Owners []int64 `env:"OWNERS"`

	// CredentialKey is an optional 32-byte key (hex-encoded) that enables
	// at-rest sealing of stored account passwords. When empty, passwords
	// are persisted as received.
	// Env: APP_CREDENTIAL_KEY
	CredentialKey string `env:"CREDENTIAL_KEY"`
}

// API holds settings for the outbound RadarGame API client.
type API struct {
	// BaseURL is the root of the RadarGame REST API,
	// e.g. "https://api.radargame.example".
	// Env: API_BASE_URL
	BaseURL string `env:"BASE_URL"`

	// RequestTimeout bounds a single outbound request. There is no retry:
	// a failed call is terminal for the requesting flow.
	// Env: API_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Storage groups the configuration for all persistence backends.
type Storage struct {
	// DB holds the relational database connection settings.
	DB DB `envPrefix:"DB_"`

	// Configs holds the artifact output settings.
	Configs Configs `envPrefix:"CONFIGS_"`
}

// DB holds connection settings for the relational backend. A DSN with a
// postgres scheme selects the pgx driver; anything else is treated as a
// SQLite file path.
type DB struct {
	// DSN is the database connection string or SQLite file path.
	// Env: STORAGE_DB_DATABASE_URI
	DSN string `env:"DATABASE_URI"`
}

// Configs holds settings for generated configuration artifacts.
type Configs struct {
	// Dir is the directory where artifacts are written. Created if absent.
	// Env: STORAGE_CONFIGS_DIR
	Dir string `env:"DIR"`

	// FilePrefix is the filename prefix of every artifact
	// (e.g. "radar" -> configs/radar-XXXXXXXX.conf).
	// Env: STORAGE_CONFIGS_FILE_PREFIX
	FilePrefix string `env:"FILE_PREFIX"`

	// DNSFilePath points to the JSON file with selectable DNS profiles.
	// Env: STORAGE_CONFIGS_DNS_FILE
	DNSFilePath string `env:"DNS_FILE"`
}

// Bot holds settings of the inbound chat-update loop.
type Bot struct {
	// Token is the chat-platform bot token used by the transport layer.
	// Env: BOT_TOKEN
	Token string `env:"TOKEN"`

	// APIURL overrides the chat-platform Bot API root. Empty selects the
	// platform default.
	// Env: BOT_API_URL
	APIURL string `env:"API_URL"`

	// FlowTTL is how long an unfinished registration flow survives without
	// input before it is expired and its scratch state dropped.
	// Env: BOT_FLOW_TTL
	FlowTTL time.Duration `env:"FLOW_TTL"`
}

// Ops holds settings of the operational HTTP endpoint.
type Ops struct {
	// HTTPAddress is the listen address of the /healthz and /stats
	// endpoint, in "host:port" format. Empty disables the server.
	// Env: OPS_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout is the maximum duration allowed for a single inbound
	// request before the server cancels it.
	// Env: OPS_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Workers holds configuration for background worker processes.
type Workers struct {
	// JanitorInterval is the sweep period of the artifact janitor.
	// Env: WORKERS_JANITOR_INTERVAL
	JanitorInterval time.Duration `env:"JANITOR_INTERVAL"`

	// ArtifactTTL is how long a written artifact is kept before the
	// janitor removes it. Zero disables pruning.
	// Env: WORKERS_ARTIFACT_TTL
	ArtifactTTL time.Duration `env:"ARTIFACT_TTL"`
}

// Config is the top-level configuration container for radarlink. It
// aggregates all sub-configurations and is populated by merging values from
// environment variables, command-line flags, and an optional JSON file.
//
// Struct tags:
//   - envPrefix — prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       — direct environment variable name for scalar fields.
type Config struct {
	App     App     `envPrefix:"APP_"`
	API     API     `envPrefix:"API_"`
	Storage Storage `envPrefix:"STORAGE_"`
	Bot     Bot     `envPrefix:"BOT_"`
	Ops     Ops     `envPrefix:"OPS_"`
	Workers Workers `envPrefix:"WORKERS_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged on top of the values
	// already loaded from environment variables and flags.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// GetConfig loads, merges, and validates the application configuration from
// all available sources in the following priority order (an earlier source
// wins for fields it sets; later sources fill the gaps):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON file (path resolved from sources 1 and 2)
//
// Returns a fully populated *Config or an error if any source fails to load
// or the final config fails validation.
func GetConfig() (*Config, error) {
	return newConfigBuilder().
		withEnv().
		withFlags().
		withJSON().
		build()
}
