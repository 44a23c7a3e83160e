// Package config defines the top-level configuration for the vote-escrow
// ledger daemon and provides validation helpers.
package config

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by VELEDGER_* environment
// variables.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Custody  CustodyConfig  `toml:"custody"`
	Metadata MetadataConfig `toml:"metadata"`
	LogLevel string         `toml:"log_level"`
}

// ServerConfig holds the HTTP API parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`   // empty disables auth
	AdminKey    string   `toml:"admin_key"` // guards resolver swap and archive
}

// PostgresConfig holds the snapshot/audit database parameters.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds the signal bus connection parameters.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds the audit archive object-storage parameters.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// CustodyConfig holds the external token backend parameters. With RPCURL
// empty the external custody kind falls back to a local balance ledger,
// which is only suitable for development.
type CustodyConfig struct {
	RPCURL           string `toml:"rpc_url"`
	TokenAddress     string `toml:"token_address"`
	ChainID          int64  `toml:"chain_id"`
	GasLimit         uint64 `toml:"gas_limit"`
	PrivateKey       string `toml:"private_key"`
	EncryptedKeyPath string `toml:"encrypted_key_path"`
	KeyPassword      string `toml:"key_password"`
}

// MetadataConfig holds the default metadata resolver parameters.
type MetadataConfig struct {
	// URITemplate seeds the resolver at startup; placeholders {id},
	// {amount}, {duration}, {locked_until}. Empty leaves the resolver
	// unset until swapped via the API.
	URITemplate string `toml:"uri_template"`
}

// Defaults returns the built-in configuration baseline.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 8787,
		},
		Postgres: PostgresConfig{
			Enabled:       true,
			Port:          5432,
			SSLMode:       "disable",
			PoolMaxConns:  8,
			PoolMinConns:  1,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Enabled: true,
			Addr:    "localhost:6379",
		},
		LogLevel: "info",
	}
}

// Validate checks the configuration for inconsistencies that would only
// surface later at runtime.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server port %d", c.Server.Port)
	}

	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log_level %q", c.LogLevel)
	}

	if c.Postgres.Enabled && c.Postgres.DSN == "" && c.Postgres.Host == "" {
		return fmt.Errorf("config: postgres enabled but neither dsn nor host set")
	}

	if c.Custody.RPCURL != "" {
		if !common.IsHexAddress(c.Custody.TokenAddress) {
			return fmt.Errorf("config: custody token_address %q is not a valid address", c.Custody.TokenAddress)
		}
		if c.Custody.PrivateKey == "" && c.Custody.EncryptedKeyPath == "" {
			return fmt.Errorf("config: custody rpc_url set but no signing key source configured")
		}
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" || c.S3.Region == "" {
			return fmt.Errorf("config: s3 enabled but bucket or region missing")
		}
	}

	return nil
}
