// Package config loads csvutil settings from environment variables.
//
// Every command reads the same variables, so a .env file next to the
// binary configures convert, index, export and serve alike.
package config

import (
	"strconv"
	"time"
)

// Config holds all settings.
type Config struct {
	CSV      CSVConfig
	Server   ServerConfig
	Database DatabaseConfig
	Store    StoreConfig
	Logging  LoggingConfig
}

// CSVConfig holds reader and writer defaults.
type CSVConfig struct {
	// Delimiter is the field separator, a single character (default: |)
	Delimiter string `env:"CSV_DELIMITER" default:"|"`

	// ReadEncoding is the input text encoding (default: utf-8-sig)
	ReadEncoding string `env:"CSV_READ_ENCODING" default:"utf-8-sig"`

	// WriteEncoding is the output text encoding (default: utf-8)
	WriteEncoding string `env:"CSV_WRITE_ENCODING" default:"utf-8"`

	// MaxFieldSize is the largest accepted cell in bytes (default: 1024000)
	MaxFieldSize int `env:"CSV_MAX_FIELD_SIZE" default:"1024000"`

	// UseMaxSize lifts the cell size limit entirely (default: false)
	UseMaxSize bool `env:"CSV_USE_MAXSIZE" default:"false"`

	// ShardSize splits output every N rows, 0 disables sharding (default: 0)
	ShardSize int `env:"CSV_SHARD_SIZE" default:"0"`

	// TempDir holds staging files (default: system temp dir)
	TempDir string `env:"CSV_TEMP_DIR"`

	// CRLF ends output rows with \r\n (default: false)
	CRLF bool `env:"CSV_CRLF" default:"false"`
}

// ServerConfig holds lookup server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`

	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// X-Real-IP / X-Forwarded-For headers are believed
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey gates /api routes behind X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`
}

// DatabaseConfig holds the export source connection.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. Only export needs it.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 4)
	MaxConns int `env:"DB_MAX_CONNS" default:"4"`

	// QueryTimeout bounds a whole export query (default: 0, no limit)
	QueryTimeout time.Duration `env:"DB_QUERY_TIMEOUT" default:"0s"`
}

// StoreConfig holds the object store shards are uploaded to.
type StoreConfig struct {
	// Endpoint is host[:port] of an S3 compatible service. Empty keeps
	// shards on local disk.
	Endpoint string `env:"STORE_ENDPOINT"`

	AccessKey string `env:"STORE_ACCESS_KEY" envAlt:"AWS_ACCESS_KEY_ID"`
	SecretKey string `env:"STORE_SECRET_KEY" envAlt:"AWS_SECRET_ACCESS_KEY"`

	Bucket string `env:"STORE_BUCKET"`
	Region string `env:"STORE_REGION" default:"us-east-1"`

	// Prefix is prepended to every object name (default: none)
	Prefix string `env:"STORE_PREFIX"`

	// Secure selects https (default: true)
	Secure bool `env:"STORE_SECURE" default:"true"`
}

// Enabled reports whether shards should be uploaded.
func (c *StoreConfig) Enabled() bool {
	return c.Endpoint != ""
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
