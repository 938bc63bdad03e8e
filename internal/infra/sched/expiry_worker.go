package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"study-access-redemption/internal/domain/ports/repository"
	"study-access-redemption/internal/infra/metrics"
	"study-access-redemption/internal/usecase"
)

// ExpiryWorker periodically flips lapsed subscriptions to EXPIRED. The mobile
// client renders the stored status, so something has to move it past the end
// date; redemption alone only un-expires.
type ExpiryWorker struct {
	interval time.Duration
	subs     repository.SubscriptionRepository
	clock    usecase.Clock
	log      *zerolog.Logger
}

func NewExpiryWorker(interval time.Duration, subs repository.SubscriptionRepository, clock usecase.Clock, logger *zerolog.Logger) *ExpiryWorker {
	wLog := logger.With().Str("component", "ExpiryWorker").Logger()
	if clock == nil {
		clock = usecase.SystemClock()
	}
	return &ExpiryWorker{
		interval: interval,
		subs:     subs,
		clock:    clock,
		log:      &wLog,
	}
}

func (w *ExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting expiry worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping expiry worker")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.subs.MarkExpired(ctx, w.clock.Now())
			if err != nil {
				w.log.Error().Err(err).Msg("expiry sweep error")
				continue
			}
			if n > 0 {
				metrics.IncSubscriptionsExpired(n)
				w.log.Info().Int("count", n).Msg("subscriptions expired")
			}
			if counts, err := w.subs.CountByStatus(ctx); err == nil {
				metrics.SetSubscriptionsTotal(counts)
			}
		}
	}
}
