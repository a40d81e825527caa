package trading

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zyrticx/tradesmart-api/internal/position"
)

// Reconciler periodically sweeps open trades and repairs any whose stored
// derived fields no longer match their event ledger. Reads already
// self-heal on access; the sweep catches trades nobody is looking at, for
// example after a write that saved the event but failed the trade update.
type Reconciler struct {
	db         *Database
	sweepDelay time.Duration
}

func NewReconciler(db *Database) *Reconciler {
	return &Reconciler{
		db:         db,
		sweepDelay: 15 * time.Minute,
	}
}

// Start begins the reconciliation sweep loop
func (r *Reconciler) Start(ctx context.Context) {
	logger := log.With().Str("component", "ledger_reconciler").Logger()
	logger.Info().Msg("starting ledger reconciler")

	ticker := time.NewTicker(r.sweepDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down ledger reconciler")
			return
		case <-ticker.C:
			if err := r.sweep(); err != nil {
				logger.Error().Err(err).Msg("ledger sweep failed")
			}
		}
	}
}

func (r *Reconciler) sweep() error {
	logger := log.With().Str("component", "ledger_reconciler").Logger()

	trades, err := r.db.ListOpenTrades()
	if err != nil {
		return err
	}

	repaired := 0
	for i := range trades {
		trade := &trades[i]

		events, err := r.db.ListEvents(trade.TradeID)
		if err != nil {
			logger.Error().Err(err).Str("trade_id", trade.TradeID).Msg("failed to load ledger")
			continue
		}

		snap, anomalies := position.Reconcile(trade, events)
		logAnomalies(trade.TradeID, anomalies)

		if snap == snapshotOf(trade) {
			continue
		}

		snap.Apply(trade)
		trade.UpdatedAt = time.Now()
		if err := r.db.SaveTrade(trade); err != nil {
			logger.Error().Err(err).Str("trade_id", trade.TradeID).Msg("failed to repair trade")
			continue
		}
		repaired++
	}

	if repaired > 0 {
		logger.Info().Int("repaired", repaired).Int("scanned", len(trades)).Msg("ledger sweep repaired drifted trades")
	}
	return nil
}
