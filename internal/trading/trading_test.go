package trading

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/zyrticx/tradesmart-api/internal/database"
	"github.com/zyrticx/tradesmart-api/internal/types"
)

func setupService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	return NewService(db), db
}

func openingTrade(qty, price, stop float64) NewTrade {
	return NewTrade{
		AccountID:  "acct-1",
		Symbol:     "AAPL",
		Direction:  types.DirectionLong,
		Quantity:   qty,
		EntryPrice: price,
		StopPrice:  stop,
		Date:       time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestCreateTradeDerivesFromOpeningEvent(t *testing.T) {
	svc, _ := setupService(t)

	resp, err := svc.CreateTrade("user-1", openingTrade(10, 100, 95))
	require.NoError(t, err)
	require.Empty(t, resp.Warnings)

	trade := resp.Trade
	assert.Equal(t, types.StatusOpen, trade.Status)
	assert.Equal(t, 10.0, trade.Quantity)
	assert.Equal(t, 100.0, trade.EntryPrice)
	assert.Equal(t, 95.0, trade.StopPrice)
	assert.Equal(t, 50.0, trade.RiskAmount) // (100-95)*10

	events, err := svc.ListEvents(trade.TradeID, "user-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, types.EventBuy, events[0].Type)
}

func TestCreateTradeRejectsBadDirection(t *testing.T) {
	svc, _ := setupService(t)

	req := openingTrade(10, 100, 95)
	req.Direction = "sideways"
	_, err := svc.CreateTrade("user-1", req)
	assert.ErrorIs(t, err, ErrInvalidDirection)
}

func TestAddAndSellLifecycle(t *testing.T) {
	svc, _ := setupService(t)

	resp, err := svc.CreateTrade("user-1", openingTrade(10, 100, 0))
	require.NoError(t, err)
	tradeID := resp.Trade.TradeID

	// Scale in at a higher price
	resp, err = svc.AddEvent(tradeID, "user-1", NewEvent{
		Type:     types.EventAdd,
		Date:     time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC),
		Quantity: 10,
		Price:    200,
	})
	require.NoError(t, err)
	assert.Equal(t, 150.0, resp.Trade.EntryPrice)
	assert.Equal(t, 20.0, resp.Trade.Quantity)

	// Partial close realizes against the average cost
	resp, err = svc.AddEvent(tradeID, "user-1", NewEvent{
		Type:     types.EventSell,
		Date:     time.Date(2024, 3, 3, 10, 0, 0, 0, time.UTC),
		Quantity: 5,
		Price:    180,
	})
	require.NoError(t, err)
	assert.Equal(t, 150.0, resp.Trade.ProfitLoss)
	assert.Equal(t, 15.0, resp.Trade.Quantity)
	assert.Equal(t, types.StatusOpen, resp.Trade.Status)
	assert.True(t, resp.Trade.IsPartiallyClosed)

	// Full close
	resp, err = svc.AddEvent(tradeID, "user-1", NewEvent{
		Type:     types.EventSell,
		Date:     time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC),
		Quantity: 15,
		Price:    180,
	})
	require.NoError(t, err)
	assert.Equal(t, types.StatusClosed, resp.Trade.Status)
	assert.Equal(t, 0.0, resp.Trade.Quantity)
	assert.Equal(t, 0.0, resp.Trade.RiskAmount)
	assert.False(t, resp.Trade.IsPartiallyClosed)
}

func TestAddEventRejectsUnknownType(t *testing.T) {
	svc, _ := setupService(t)

	resp, err := svc.CreateTrade("user-1", openingTrade(10, 100, 95))
	require.NoError(t, err)

	_, err = svc.AddEvent(resp.Trade.TradeID, "user-1", NewEvent{
		Type:     "short",
		Quantity: 5,
		Price:    100,
	})
	assert.ErrorIs(t, err, ErrInvalidEventType)
}

func TestOversellSurfacesWarning(t *testing.T) {
	svc, _ := setupService(t)

	resp, err := svc.CreateTrade("user-1", openingTrade(5, 100, 0))
	require.NoError(t, err)

	resp, err = svc.AddEvent(resp.Trade.TradeID, "user-1", NewEvent{
		Type:     types.EventSell,
		Quantity: 8,
		Price:    110,
	})
	require.NoError(t, err, "oversell is accepted and reported, not rejected")
	require.NotEmpty(t, resp.Warnings)
	assert.Equal(t, -3.0, resp.Trade.Quantity)
	assert.Equal(t, types.StatusClosed, resp.Trade.Status)
}

func TestGetTradeSelfHealsDrift(t *testing.T) {
	svc, db := setupService(t)

	resp, err := svc.CreateTrade("user-1", openingTrade(10, 100, 95))
	require.NoError(t, err)
	tradeID := resp.Trade.TradeID

	// Simulate a past write that saved the event but corrupted the
	// derived trade row
	err = db.Model(&types.Trade{}).
		Where("trade_id = ?", tradeID).
		Updates(map[string]interface{}{"profit_loss": 999.0, "quantity": 0.0, "status": types.StatusClosed}).Error
	require.NoError(t, err)

	healed, err := svc.GetTrade(tradeID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, healed.Trade.ProfitLoss)
	assert.Equal(t, 10.0, healed.Trade.Quantity)
	assert.Equal(t, types.StatusOpen, healed.Trade.Status)

	// The repair is persisted, not just returned
	var stored types.Trade
	require.NoError(t, db.Where("trade_id = ?", tradeID).First(&stored).Error)
	assert.Equal(t, 10.0, stored.Quantity)
	assert.Equal(t, types.StatusOpen, stored.Status)
}

func TestUpdateEventReplaysLedger(t *testing.T) {
	svc, _ := setupService(t)

	resp, err := svc.CreateTrade("user-1", openingTrade(10, 100, 95))
	require.NoError(t, err)
	tradeID := resp.Trade.TradeID

	events, err := svc.ListEvents(tradeID, "user-1")
	require.NoError(t, err)
	require.Len(t, events, 1)

	resp, err = svc.UpdateEvent(tradeID, events[0].EventID, "user-1", NewEvent{
		Quantity:        20,
		Price:           110,
		StopLossAtEvent: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, 20.0, resp.Trade.Quantity)
	assert.Equal(t, 110.0, resp.Trade.EntryPrice)
	assert.Equal(t, 100.0, resp.Trade.StopPrice)
	assert.Equal(t, 200.0, resp.Trade.RiskAmount) // (110-100)*20
}

func TestDeleteLastEventDeletesTrade(t *testing.T) {
	svc, _ := setupService(t)

	resp, err := svc.CreateTrade("user-1", openingTrade(10, 100, 95))
	require.NoError(t, err)
	tradeID := resp.Trade.TradeID

	events, err := svc.ListEvents(tradeID, "user-1")
	require.NoError(t, err)
	require.Len(t, events, 1)

	_, tradeDeleted, err := svc.DeleteEvent(tradeID, events[0].EventID, "user-1")
	require.NoError(t, err)
	assert.True(t, tradeDeleted, "a trade with no events is no position at all")

	_, err = svc.GetTrade(tradeID, "user-1")
	assert.ErrorIs(t, err, ErrTradeNotFound)
}

func TestDeleteEventRecomputesRemaining(t *testing.T) {
	svc, _ := setupService(t)

	resp, err := svc.CreateTrade("user-1", openingTrade(10, 100, 0))
	require.NoError(t, err)
	tradeID := resp.Trade.TradeID

	resp, err = svc.AddEvent(tradeID, "user-1", NewEvent{
		Type:     types.EventSell,
		Date:     time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC),
		Quantity: 10,
		Price:    120,
	})
	require.NoError(t, err)
	assert.Equal(t, types.StatusClosed, resp.Trade.Status)

	events, err := svc.ListEvents(tradeID, "user-1")
	require.NoError(t, err)
	require.Len(t, events, 2)

	// Removing the sell reopens the position
	var sellID string
	for _, e := range events {
		if e.Type == types.EventSell {
			sellID = e.EventID
		}
	}
	resp, tradeDeleted, err := svc.DeleteEvent(tradeID, sellID, "user-1")
	require.NoError(t, err)
	assert.False(t, tradeDeleted)
	assert.Equal(t, types.StatusOpen, resp.Trade.Status)
	assert.Equal(t, 10.0, resp.Trade.Quantity)
	assert.Equal(t, 0.0, resp.Trade.ProfitLoss)
}

func TestTradesAreScopedToUser(t *testing.T) {
	svc, _ := setupService(t)

	resp, err := svc.CreateTrade("user-1", openingTrade(10, 100, 95))
	require.NoError(t, err)

	_, err = svc.GetTrade(resp.Trade.TradeID, "user-2")
	assert.ErrorIs(t, err, ErrTradeNotFound)

	trades, err := svc.ListTrades("user-2", "")
	require.NoError(t, err)
	assert.Empty(t, trades)
}
