package service

import (
	"context"
	"fmt"

	snapredis "github.com/okian/leaguelearn/internal/adapters/cache/redis"
	"github.com/okian/leaguelearn/internal/adapters/leagueimport"
	"github.com/okian/leaguelearn/internal/adapters/repository/postgres"
	"github.com/okian/leaguelearn/internal/config"
	"github.com/okian/leaguelearn/pkg/logger"
)

// Open connects the backends cfg selects and builds the service on top of
// them. Extra options are applied after the backend options.
func Open(ctx context.Context, cfg *config.Config, log logger.Logger, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = config.New()
	}
	if log == nil {
		log = logger.Discard()
	}
	base := []Option{WithLogger(log)}

	var pg *postgres.Store
	if cfg.StorageBackend == "postgres" || cfg.SnapshotBackend == "postgres" {
		store, err := postgres.Open(ctx, cfg.PostgresDSN, cfg.QueryTimeout)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
		pg = store
		base = append(base, WithCloser(store.Close))
		log.Info(ctx, "using postgres store")
	}

	if cfg.StorageBackend == "postgres" {
		base = append(base,
			WithWeightStore(pg),
			WithFeedbackStore(pg),
			WithTendencyStore(pg),
			WithListingStore(pg))
	}

	switch cfg.SnapshotBackend {
	case "postgres":
		base = append(base, WithSnapshotStore(pg))
	case "redis":
		rs, err := snapredis.Dial(ctx, cfg.RedisAddr, snapredis.WithTimeout(cfg.RedisTimeout))
		if err != nil {
			if pg != nil {
				_ = pg.Close()
			}
			return nil, fmt.Errorf("open snapshot store: %w", err)
		}
		base = append(base, WithSnapshotStore(rs), WithCloser(rs.Close))
		log.Info(ctx, "using redis snapshot store", logger.String("addr", cfg.RedisAddr))
	}

	if cfg.ImportBaseURL != "" {
		client := leagueimport.New(cfg.ImportBaseURL,
			leagueimport.WithTimeout(cfg.ImportTimeout),
			leagueimport.WithRateLimit(cfg.ImportRPS, cfg.ImportBurst),
			leagueimport.WithLogger(log.Named("import")))
		base = append(base, WithActivitySource(client))
	}

	return New(cfg, append(base, opts...)...), nil
}
