package scheduler

import (
	"context"
	"time"

	"github.com/gmja/storefront/internal/infrastructure/config"
)

// TaskPurgeBaskets is the name of the abandoned basket purge
const TaskPurgeBaskets = "purge-abandoned-baskets"

// BasketPurger deletes anonymous baskets nobody came back to
type BasketPurger interface {
	PurgeAbandoned(ctx context.Context, maxAge time.Duration) (int64, error)
}

// PurgeBaskets is the task deleting anonymous baskets older than
// cfg.BasketMaxAge
func PurgeBaskets(p BasketPurger, cfg config.SchedulerConfig) Task {
	return Task{
		Name:     TaskPurgeBaskets,
		Interval: cfg.BasketPurgeInterval,
		Run: func(ctx context.Context) error {
			_, err := p.PurgeAbandoned(ctx, cfg.BasketMaxAge)
			return err
		},
	}
}
