package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	s3blob "github.com/alanyoungcy/veledger/internal/blob/s3"
	"github.com/alanyoungcy/veledger/internal/cache/redis"
	"github.com/alanyoungcy/veledger/internal/config"
	"github.com/alanyoungcy/veledger/internal/crypto"
	"github.com/alanyoungcy/veledger/internal/custody"
	"github.com/alanyoungcy/veledger/internal/custody/erc20"
	"github.com/alanyoungcy/veledger/internal/domain"
	"github.com/alanyoungcy/veledger/internal/ledger"
	"github.com/alanyoungcy/veledger/internal/metadata"
	"github.com/alanyoungcy/veledger/internal/registry"
	"github.com/alanyoungcy/veledger/internal/service"
	"github.com/alanyoungcy/veledger/internal/store/postgres"
)

// Dependencies bundles everything the application needs to serve the API.
type Dependencies struct {
	Ledger    *ledger.Ledger
	Registry  *registry.Registry
	Internal  *custody.BalanceLedger
	Positions *service.PositionService
	Facade    *metadata.Facade

	RecordStore domain.RecordStore
	AuditStore  domain.AuditStore
	SignalBus   domain.SignalBus
	Archiver    *s3blob.Archiver
}

// Wire constructs the concrete dependency graph from the configuration and
// returns it with a cleanup function to run on shutdown.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL snapshot + audit stores ---
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		deps.RecordStore = postgres.NewRecordStore(pgClient.Pool())
		deps.AuditStore = postgres.NewAuditStore(pgClient.Pool())
	}

	// --- Redis signal bus ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.SignalBus = redis.NewSignalBus(redisClient)
	}

	// --- S3 audit archiver ---
	if cfg.S3.Enabled {
		if deps.AuditStore == nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3 archiver requires postgres audit store")
		}
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(s3Client), deps.AuditStore)
	}

	// --- Custody backends ---
	deps.Internal = custody.NewBalanceLedger()

	var external domain.CustodyBackend
	if cfg.Custody.RPCURL != "" {
		key, err := crypto.LoadSignerKey(crypto.KeyConfig{
			RawPrivateKey:    cfg.Custody.PrivateKey,
			EncryptedKeyPath: cfg.Custody.EncryptedKeyPath,
			KeyPassword:      cfg.Custody.KeyPassword,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: custody key: %w", err)
		}
		erc20Client, err := erc20.New(ctx, erc20.Config{
			RPCURL:   cfg.Custody.RPCURL,
			Token:    common.HexToAddress(cfg.Custody.TokenAddress),
			Key:      key,
			ChainID:  cfg.Custody.ChainID,
			GasLimit: cfg.Custody.GasLimit,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: erc20 backend: %w", err)
		}
		closers = append(closers, erc20Client.Close)
		external = erc20Client

		logger.Info("wire: external custody over json-rpc",
			slog.String("token", cfg.Custody.TokenAddress),
			slog.String("custody_account", erc20Client.CustodyAddress().Hex()),
		)
	} else {
		// Development fallback: external custody on a local balance ledger.
		external = custody.NewBalanceLedger()
		logger.Warn("wire: no custody rpc_url configured, external custody is in-memory")
	}

	// --- Core ledger + services ---
	deps.Registry = registry.New()
	deps.Ledger = ledger.New(deps.Registry, custody.NewRouter(external, deps.Internal), nil)
	deps.Positions = service.NewPositionService(deps.Ledger, deps.RecordStore, deps.AuditStore, deps.SignalBus, logger)
	deps.Registry.OnTransfer(deps.Positions.OwnerChanged)

	deps.Facade = metadata.NewFacade(deps.Ledger)
	if cfg.Metadata.URITemplate != "" {
		deps.Facade.SetResolver(metadata.NewTemplateResolver(cfg.Metadata.URITemplate))
	}

	return deps, cleanup, nil
}
