package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/promptkeeper/internal/client/models"
	"github.com/dmitrijs2005/promptkeeper/internal/common"
	"github.com/dmitrijs2005/promptkeeper/internal/logging"
	"github.com/sony/gobreaker"
)

// BreakerConfig configures WithCircuitBreaker.
type BreakerConfig struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// The breaker opens after this many consecutive failures.
	ConsecutiveFailures uint32
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:                "remote",
		MaxRequests:         1,
		Interval:            time.Minute,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
	}
}

type breakerStore struct {
	next Store
	cb   *gobreaker.CircuitBreaker
}

// WithCircuitBreaker stops calling next after repeated failures. While the
// breaker is open calls fail fast with common.ErrRemoteUnavailable.
// Ownership conflicts and missing rows do not count as failures.
func WithCircuitBreaker(next Store, cfg BreakerConfig, log logging.Logger) Store {
	if log == nil {
		log = logging.NewNop()
	}
	threshold := cfg.ConsecutiveFailures
	if threshold == 0 {
		threshold = DefaultBreakerConfig().ConsecutiveFailures
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn(context.Background(), "circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, common.ErrOwnershipConflict) ||
				errors.Is(err, common.ErrorNotFound) ||
				errors.Is(err, context.Canceled)
		},
	})
	return &breakerStore{next: next, cb: cb}
}

func (b *breakerStore) run(fn func() (any, error)) (any, error) {
	v, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", common.ErrRemoteUnavailable, err)
	}
	return v, err
}

func (b *breakerStore) FetchUpdated(ctx context.Context, owner string, since *time.Time) ([]models.Prompt, error) {
	v, err := b.run(func() (any, error) {
		return b.next.FetchUpdated(ctx, owner, since)
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Prompt), nil
}

func (b *breakerStore) UpsertPrompt(ctx context.Context, p *models.Prompt) error {
	_, err := b.run(func() (any, error) {
		return nil, b.next.UpsertPrompt(ctx, p)
	})
	return err
}

func (b *breakerStore) GetProfile(ctx context.Context, owner string) (*models.Profile, error) {
	v, err := b.run(func() (any, error) {
		return b.next.GetProfile(ctx, owner)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Profile), nil
}

func (b *breakerStore) SaveProfile(ctx context.Context, p *models.Profile) error {
	_, err := b.run(func() (any, error) {
		return nil, b.next.SaveProfile(ctx, p)
	})
	return err
}

func (b *breakerStore) Ping(ctx context.Context) error {
	_, err := b.run(func() (any, error) {
		return nil, b.next.Ping(ctx)
	})
	return err
}
