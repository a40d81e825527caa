package position

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zyrticx/tradesmart-api/internal/types"
)

func event(eventType string, daysIn int, qty, price float64) types.TradeEvent {
	return types.TradeEvent{
		Type:     eventType,
		Date:     time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC).AddDate(0, 0, daysIn),
		Quantity: qty,
		Price:    price,
	}
}

func TestReconcileEmptyLedger(t *testing.T) {
	trade := &types.Trade{Direction: types.DirectionLong, InitialStopPrice: 95}

	snap, anomalies := Reconcile(trade, nil)

	assert.Empty(t, anomalies)
	assert.Equal(t, 0.0, snap.Quantity)
	assert.Equal(t, 0.0, snap.EntryPrice)
	assert.Equal(t, types.StatusClosed, snap.Status)
	assert.False(t, snap.IsPartiallyClosed)
}

func TestReconcileAverageCostBasis(t *testing.T) {
	trade := &types.Trade{Direction: types.DirectionLong}
	events := []types.TradeEvent{
		event(types.EventBuy, 0, 10, 100),
		event(types.EventAdd, 1, 10, 200),
	}

	snap, anomalies := Reconcile(trade, events)
	require.Empty(t, anomalies)
	assert.Equal(t, 150.0, snap.EntryPrice)
	assert.Equal(t, 20.0, snap.Quantity)
	assert.Equal(t, 20.0, snap.TotalQuantity)
	assert.Equal(t, 3000.0, snap.TotalInvestment)

	// Selling 5 at 180 realizes against the blended 150 average
	events = append(events, event(types.EventSell, 2, 5, 180))
	snap, anomalies = Reconcile(trade, events)
	require.Empty(t, anomalies)
	assert.Equal(t, 150.0, snap.ProfitLoss)
	assert.Equal(t, 15.0, snap.Quantity)
	assert.Equal(t, types.StatusOpen, snap.Status)
	assert.True(t, snap.IsPartiallyClosed)
}

func TestReconcileIdempotent(t *testing.T) {
	trade := &types.Trade{Direction: types.DirectionLong, InitialStopPrice: 90}
	events := []types.TradeEvent{
		event(types.EventBuy, 0, 10, 100),
		event(types.EventSell, 1, 4, 120),
	}

	first, _ := Reconcile(trade, events)
	second, _ := Reconcile(trade, events)
	assert.Equal(t, first, second)
}

func TestReconcileFullCloseFlipsStatus(t *testing.T) {
	trade := &types.Trade{Direction: types.DirectionLong, InitialStopPrice: 95}
	events := []types.TradeEvent{
		event(types.EventBuy, 0, 10, 100),
	}

	snap, _ := Reconcile(trade, events)
	assert.Equal(t, types.StatusOpen, snap.Status)
	assert.Equal(t, 50.0, snap.RiskAmount) // (100-95)*10

	events = append(events, event(types.EventSell, 1, 10, 110))
	snap, _ = Reconcile(trade, events)
	assert.Equal(t, types.StatusClosed, snap.Status)
	assert.Equal(t, 0.0, snap.RiskAmount)
	assert.Equal(t, 0.0, snap.Quantity)
	assert.False(t, snap.IsPartiallyClosed)
}

func TestReconcilePartialClose(t *testing.T) {
	trade := &types.Trade{Direction: types.DirectionLong}
	events := []types.TradeEvent{
		event(types.EventBuy, 0, 10, 50),
		event(types.EventSell, 1, 4, 60),
	}

	snap, anomalies := Reconcile(trade, events)
	require.Empty(t, anomalies)
	assert.Equal(t, 6.0, snap.Quantity)
	assert.Equal(t, types.StatusOpen, snap.Status)
	assert.True(t, snap.IsPartiallyClosed)
}

func TestReconcileStopTracking(t *testing.T) {
	trade := &types.Trade{Direction: types.DirectionLong, InitialStopPrice: 40}

	stops := []float64{0, 45, 0, 50}
	var events []types.TradeEvent
	for i, stop := range stops {
		e := event(types.EventBuy, i, 1, 100)
		e.StopLossAtEvent = stop
		events = append(events, e)
	}

	snap, _ := Reconcile(trade, events)
	assert.Equal(t, 50.0, snap.StopPrice, "last non-zero stop wins, not last overall")

	// No stop on any event falls back to the trade's initial stop
	for i := range events {
		events[i].StopLossAtEvent = 0
	}
	snap, _ = Reconcile(trade, events)
	assert.Equal(t, 40.0, snap.StopPrice)
}

func TestReconcileRiskByDirection(t *testing.T) {
	events := []types.TradeEvent{
		func() types.TradeEvent {
			e := event(types.EventBuy, 0, 20, 100)
			e.StopLossAtEvent = 110
			return e
		}(),
	}

	short := &types.Trade{Direction: types.DirectionShort}
	snap, _ := Reconcile(short, events)
	assert.Equal(t, 200.0, snap.RiskAmount) // (110-100)*20

	long := &types.Trade{Direction: types.DirectionLong}
	snap, _ = Reconcile(long, events)
	assert.Equal(t, 0.0, snap.RiskAmount) // stop above entry, long risk clamps to zero
}

func TestReconcileCommissionAggregation(t *testing.T) {
	trade := &types.Trade{Direction: types.DirectionLong}
	e1 := event(types.EventBuy, 0, 10, 100)
	e1.Notes = "Entry on breakout\nCommission: $12.50"
	e2 := event(types.EventSell, 1, 10, 110)
	e2.Notes = "Stopped into strength\nCommission: $12.50"

	snap, _ := Reconcile(trade, []types.TradeEvent{e1, e2})
	assert.Equal(t, 25.0, snap.TotalCommission)
	assert.Equal(t, 100.0-25.0, snap.ProfitLoss) // realized 100 minus commission
}

func TestReconcileStructuredCommissionWins(t *testing.T) {
	trade := &types.Trade{Direction: types.DirectionLong}
	e := event(types.EventBuy, 0, 10, 100)
	e.Commission = 7.5
	e.Notes = "Commission: $12.50" // legacy text must not double-count

	snap, _ := Reconcile(trade, []types.TradeEvent{e})
	assert.Equal(t, 7.5, snap.TotalCommission)
}

func TestReconcileOversellAnomaly(t *testing.T) {
	trade := &types.Trade{Direction: types.DirectionLong}
	events := []types.TradeEvent{
		event(types.EventBuy, 0, 5, 100),
		event(types.EventSell, 1, 8, 110),
	}

	snap, anomalies := Reconcile(trade, events)
	require.Len(t, anomalies, 1)
	assert.Equal(t, AnomalyOversell, anomalies[0].Code)
	// Raw negative quantity is reported, not clamped
	assert.Equal(t, -3.0, snap.Quantity)
	assert.Equal(t, types.StatusClosed, snap.Status)
}

func TestReconcileSellWithoutBuy(t *testing.T) {
	trade := &types.Trade{Direction: types.DirectionLong}
	events := []types.TradeEvent{
		event(types.EventSell, 0, 5, 100),
	}

	snap, anomalies := Reconcile(trade, events)
	require.Len(t, anomalies, 1)
	assert.Equal(t, AnomalySellWithoutBuy, anomalies[0].Code)
	assert.Equal(t, 0.0, snap.EntryPrice)
	assert.Equal(t, 500.0, snap.ProfitLoss) // full proceeds against a zero basis
}

func TestReconcileStableSortOnEqualTimestamps(t *testing.T) {
	trade := &types.Trade{Direction: types.DirectionLong}
	ts := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	a := types.TradeEvent{Type: types.EventBuy, Date: ts, Quantity: 10, Price: 100, StopLossAtEvent: 90}
	b := types.TradeEvent{Type: types.EventBuy, Date: ts, Quantity: 10, Price: 100, StopLossAtEvent: 95}

	snap, _ := Reconcile(trade, []types.TradeEvent{a, b})
	assert.Equal(t, 95.0, snap.StopPrice, "insertion order preserved for equal timestamps")
}

func TestReconcileDoesNotMutateInput(t *testing.T) {
	trade := &types.Trade{Direction: types.DirectionLong}
	events := []types.TradeEvent{
		event(types.EventSell, 1, 5, 100),
		event(types.EventBuy, 0, 10, 90),
	}

	_, _ = Reconcile(trade, events)
	assert.Equal(t, types.EventSell, events[0].Type, "caller's slice order untouched")
}
