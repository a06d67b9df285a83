package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"whatsapp-subscription-billing/internal/usecase"
)

// ExpirationSweeper periodically demotes overdue pending transactions and
// payments via the settlement use case.
type ExpirationSweeper struct {
	interval time.Duration
	uc       usecase.SettlementUseCase
	log      *zerolog.Logger
}

func NewExpirationSweeper(interval time.Duration, uc usecase.SettlementUseCase, logger *zerolog.Logger) *ExpirationSweeper {
	swpLog := logger.With().Str("component", "ExpirationSweeper").Logger()
	return &ExpirationSweeper{
		interval: interval,
		uc:       uc,
		log:      &swpLog,
	}
}

func (w *ExpirationSweeper) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting expiration sweeper")
	// Sweep once on startup, then on every tick
	w.sweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping expiration sweeper")
			return ctx.Err()
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ExpirationSweeper) sweep(ctx context.Context) {
	n, err := w.uc.Sweep(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("expiration sweep failed")
	}
	if n > 0 {
		w.log.Info().Int64("count", n).Msg("overdue rows demoted")
	}
}
