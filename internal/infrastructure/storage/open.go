package storage

import (
	"context"
	"fmt"

	"BlogCrawler/internal/config"
	"BlogCrawler/internal/ports"
)

// Open connects the configured store, applying migrations first when asked to.
func Open(ctx context.Context, cfg config.StoreConfig) (ports.ArticleStore, error) {
	switch cfg.Driver {
	case config.DriverBolt:
		return OpenBolt(cfg.BoltPath)
	case config.DriverPostgres:
		if cfg.MigrateOnStart {
			if err := RunMigrations(cfg.DSN); err != nil {
				return nil, err
			}
		}
		return OpenPostgres(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
