package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	goredis "github.com/redis/go-redis/v9"

	"github.com/eduforge/lms-backend/internal/clients/redis"
	"github.com/eduforge/lms-backend/internal/config"
	"github.com/eduforge/lms-backend/internal/data/db"
	"github.com/eduforge/lms-backend/internal/modules/generation/providers"
	"github.com/eduforge/lms-backend/internal/platform/filestore"
	"github.com/eduforge/lms-backend/internal/platform/logger"
)

// Clients holds the connections the app owns and must release on exit.
type Clients struct {
	DB        *db.Service
	Redis     *goredis.Client
	Files     filestore.Store
	Providers *providers.Registry
}

func wireClients(ctx context.Context, log *logger.Logger, cfg *config.Config) (*Clients, error) {
	log.Info("Wiring clients...")
	out := &Clients{}

	dbs, err := db.Open(cfg.DB, log)
	if err != nil {
		return nil, fmt.Errorf("init db: %w", err)
	}
	out.DB = dbs
	if err := db.AutoMigrateAll(dbs.DB()); err != nil {
		_ = out.Close()
		return nil, fmt.Errorf("automigrate: %w", err)
	}

	if cfg.Redis.Addr != "" {
		rdb, err := redis.NewClient(ctx, log, cfg.Redis.Addr)
		if err != nil {
			_ = out.Close()
			return nil, fmt.Errorf("init redis: %w", err)
		}
		out.Redis = rdb
	} else {
		log.Warn("REDIS_ADDR not set; review drafts are kept in process memory")
	}

	files, err := filestore.New(ctx, log, cfg.Storage)
	if err != nil {
		_ = out.Close()
		return nil, fmt.Errorf("init file store: %w", err)
	}
	out.Files = files

	reg, err := providers.NewRegistry(ctx, log, cfg.AI, &http.Client{})
	if err != nil {
		_ = out.Close()
		return nil, fmt.Errorf("init generation providers: %w", err)
	}
	out.Providers = reg
	return out, nil
}

func (c *Clients) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.Providers != nil {
		errs = append(errs, c.Providers.Close())
	}
	if closer, ok := c.Files.(interface{ Close() error }); ok {
		errs = append(errs, closer.Close())
	}
	if c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	if c.DB != nil {
		errs = append(errs, c.DB.Close())
	}
	return errors.Join(errs...)
}
