package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"whatsapp-subscription-billing/internal/domain/model"
	"whatsapp-subscription-billing/internal/domain/ports/repository"
	"whatsapp-subscription-billing/internal/infra/metrics"
	"whatsapp-subscription-billing/internal/usecase"
)

// PaymentReconciler periodically scans for stale pending gateway payments and
// tries to finalize them by polling the provider. This covers cases where the
// callback never arrived or the process crashed mid-settlement.
type PaymentReconciler struct {
	interval time.Duration
	stale    time.Duration
	payments repository.PaymentRepository
	uc       usecase.SettlementUseCase
	log      *zerolog.Logger
}

func NewPaymentReconciler(interval, stale time.Duration, payments repository.PaymentRepository, uc usecase.SettlementUseCase, logger *zerolog.Logger) *PaymentReconciler {
	recLog := logger.With().Str("component", "PaymentReconciler").Logger()
	return &PaymentReconciler{
		interval: interval,
		stale:    stale,
		payments: payments,
		uc:       uc,
		log:      &recLog,
	}
}

func (w *PaymentReconciler) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting payment reconciler")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping payment reconciler")
			return ctx.Err()
		case <-ticker.C:
			w.reconcile(ctx)
		}
	}
}

func (w *PaymentReconciler) reconcile(ctx context.Context) {
	cutoff := time.Now().Add(-w.stale)
	pending, err := w.payments.ListPendingOlderThan(ctx, repository.NoTX, cutoff, 50)
	if err != nil {
		w.log.Error().Err(err).Msg("listing stale pending payments failed")
		return
	}
	for _, p := range pending {
		got, err := w.uc.CheckStatus(ctx, p.ID)
		if err != nil {
			metrics.IncReconcileCheck("error")
			w.log.Warn().Err(err).Str("payment_id", p.ID).Msg("status poll failed")
			continue
		}
		if got.Status == model.PaymentStatusPending {
			metrics.IncReconcileCheck("still_pending")
			continue
		}
		metrics.IncReconcileCheck("settled")
		w.log.Info().Str("payment_id", p.ID).Str("status", string(got.Status)).Msg("stale payment reconciled")
	}
}
