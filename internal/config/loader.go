package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies VELEDGER_* environment variable overrides, and
// returns the final Config. The caller should invoke Config.Validate() after
// Load. A missing file is not an error; defaults plus environment apply.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	// Load .env if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known VELEDGER_* environment variables and
// overwrites the corresponding fields when a variable is set, so operators
// can inject secrets without touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Server ──
	setInt(&cfg.Server.Port, "VELEDGER_SERVER_PORT")
	setStr(&cfg.Server.APIKey, "VELEDGER_SERVER_API_KEY")
	setStr(&cfg.Server.AdminKey, "VELEDGER_SERVER_ADMIN_KEY")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "VELEDGER_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "VELEDGER_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "VELEDGER_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "VELEDGER_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "VELEDGER_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "VELEDGER_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "VELEDGER_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "VELEDGER_POSTGRES_SSLMODE")
	setBool(&cfg.Postgres.RunMigrations, "VELEDGER_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "VELEDGER_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "VELEDGER_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "VELEDGER_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "VELEDGER_REDIS_DB")
	setBool(&cfg.Redis.TLSEnabled, "VELEDGER_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "VELEDGER_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "VELEDGER_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "VELEDGER_S3_REGION")
	setStr(&cfg.S3.Bucket, "VELEDGER_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "VELEDGER_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "VELEDGER_S3_SECRET_KEY")

	// ── Custody ──
	setStr(&cfg.Custody.RPCURL, "VELEDGER_CUSTODY_RPC_URL")
	setStr(&cfg.Custody.TokenAddress, "VELEDGER_CUSTODY_TOKEN_ADDRESS")
	setInt64(&cfg.Custody.ChainID, "VELEDGER_CUSTODY_CHAIN_ID")
	setStr(&cfg.Custody.PrivateKey, "VELEDGER_CUSTODY_PRIVATE_KEY")
	setStr(&cfg.Custody.EncryptedKeyPath, "VELEDGER_CUSTODY_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Custody.KeyPassword, "VELEDGER_CUSTODY_KEY_PASSWORD")

	// ── Metadata ──
	setStr(&cfg.Metadata.URITemplate, "VELEDGER_METADATA_URI_TEMPLATE")

	// ── Misc ──
	setStr(&cfg.LogLevel, "VELEDGER_LOG_LEVEL")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
