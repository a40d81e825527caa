package trading

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/zyrticx/tradesmart-api/internal/position"
	"github.com/zyrticx/tradesmart-api/internal/types"
)

var (
	ErrTradeNotFound    = errors.New("trade no longer exists")
	ErrEventNotFound    = errors.New("event no longer exists")
	ErrInvalidDirection = errors.New("direction must be long or short")
	ErrInvalidEventType = errors.New("event type must be buy, add or sell")
)

// Service owns the trade ledger. Every write funnels through reconcile:
// the event rows are the source of truth and the trade row is always
// rewritten as a whole from them, never patched field by field.
type Service struct {
	db *Database
}

// NewService creates a new trading service with the given database connection
func NewService(gormDB *gorm.DB) *Service {
	return &Service{db: NewDatabase(gormDB)}
}

// NewTrade carries the static attributes plus the opening fill
type NewTrade struct {
	AccountID       string    `json:"account_id" binding:"required"`
	Symbol          string    `json:"symbol" binding:"required"`
	Direction       string    `json:"direction" binding:"required"`
	Strategy        string    `json:"strategy"`
	ConfidenceLevel int       `json:"confidence_level"`
	TargetPrice     float64   `json:"target_price"`
	StopPrice       float64   `json:"stop_price"`
	Quantity        float64   `json:"quantity" binding:"required"`
	EntryPrice      float64   `json:"entry_price" binding:"required"`
	Date            time.Time `json:"date"`
	Commission      float64   `json:"commission"`
	Notes           string    `json:"notes"`
	ScreenshotURL   string    `json:"screenshot_url"`
}

// NewEvent is a buy/add/sell recorded against an existing trade
type NewEvent struct {
	Type            string    `json:"type" binding:"required"`
	Date            time.Time `json:"date"`
	Quantity        float64   `json:"quantity" binding:"required"`
	Price           float64   `json:"price" binding:"required"`
	StopLossAtEvent float64   `json:"stop_loss_at_event"`
	Commission      float64   `json:"commission"`
	Notes           string    `json:"notes"`
	ScreenshotURL   string    `json:"screenshot_url"`
}

// CreateTrade records a new trade and its opening buy event, then derives
// the trade's initial state from that one-event ledger.
func (s *Service) CreateTrade(userID string, req NewTrade) (*types.TradeResponse, error) {
	if req.Direction != types.DirectionLong && req.Direction != types.DirectionShort {
		return nil, ErrInvalidDirection
	}
	if req.Date.IsZero() {
		req.Date = time.Now()
	}

	trade := &types.Trade{
		TradeID:          uuid.New().String(),
		UserID:           userID,
		AccountID:        req.AccountID,
		Symbol:           req.Symbol,
		Direction:        req.Direction,
		Strategy:         req.Strategy,
		ConfidenceLevel:  req.ConfidenceLevel,
		TargetPrice:      req.TargetPrice,
		InitialStopPrice: req.StopPrice,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}

	event := &types.TradeEvent{
		EventID:         uuid.New().String(),
		TradeID:         trade.TradeID,
		Type:            types.EventBuy,
		Date:            req.Date,
		Quantity:        req.Quantity,
		Price:           req.EntryPrice,
		StopLossAtEvent: req.StopPrice,
		Commission:      req.Commission,
		Notes:           req.Notes,
		ScreenshotURL:   req.ScreenshotURL,
	}

	snap, anomalies := position.Reconcile(trade, []types.TradeEvent{*event})
	snap.Apply(trade)

	if err := s.db.CreateTradeWithEvent(trade, event); err != nil {
		return nil, err
	}

	return tradeResponse(trade, anomalies), nil
}

// GetTrade loads a trade reconciled from its ledger. When the stored
// derived fields have drifted from the ledger (for example a past write
// that saved the event but lost the trade update) the repaired snapshot is
// persisted, so reads are self-healing.
func (s *Service) GetTrade(tradeID, userID string) (*types.TradeResponse, error) {
	trade, err := s.db.GetTrade(tradeID, userID)
	if err != nil {
		return nil, err
	}
	if trade == nil {
		return nil, ErrTradeNotFound
	}

	events, err := s.db.ListEvents(tradeID)
	if err != nil {
		return nil, err
	}

	snap, anomalies := position.Reconcile(trade, events)
	if snap != snapshotOf(trade) {
		log.Warn().
			Str("trade_id", tradeID).
			Msg("stored trade drifted from its event ledger, repairing")
		snap.Apply(trade)
		trade.UpdatedAt = time.Now()
		if err := s.db.SaveTrade(trade); err != nil {
			return nil, err
		}
	}

	return tradeResponse(trade, anomalies), nil
}

// ListTrades returns a user's trades, optionally filtered by account
func (s *Service) ListTrades(userID, accountID string) ([]types.Trade, error) {
	return s.db.ListTrades(userID, accountID)
}

// UpdateTrade edits the static attributes of a trade. Derived fields in
// the request are ignored; the ledger is replayed afterwards so a changed
// initial stop or direction flows into stop price and risk.
func (s *Service) UpdateTrade(tradeID, userID string, req NewTrade) (*types.TradeResponse, error) {
	if req.Direction != "" && req.Direction != types.DirectionLong && req.Direction != types.DirectionShort {
		return nil, ErrInvalidDirection
	}

	trade, err := s.db.GetTrade(tradeID, userID)
	if err != nil {
		return nil, err
	}
	if trade == nil {
		return nil, ErrTradeNotFound
	}

	if req.Symbol != "" {
		trade.Symbol = req.Symbol
	}
	if req.Direction != "" {
		trade.Direction = req.Direction
	}
	if req.Strategy != "" {
		trade.Strategy = req.Strategy
	}
	if req.ConfidenceLevel != 0 {
		trade.ConfidenceLevel = req.ConfidenceLevel
	}
	if req.TargetPrice != 0 {
		trade.TargetPrice = req.TargetPrice
	}
	if req.StopPrice != 0 {
		trade.InitialStopPrice = req.StopPrice
	}

	events, err := s.db.ListEvents(tradeID)
	if err != nil {
		return nil, err
	}

	snap, anomalies := position.Reconcile(trade, events)
	snap.Apply(trade)
	trade.UpdatedAt = time.Now()

	if err := s.db.SaveTrade(trade); err != nil {
		return nil, err
	}
	return tradeResponse(trade, anomalies), nil
}

// DeleteTrade removes a trade and its whole ledger
func (s *Service) DeleteTrade(tradeID, userID string) error {
	trade, err := s.db.GetTrade(tradeID, userID)
	if err != nil {
		return err
	}
	if trade == nil {
		return ErrTradeNotFound
	}
	return s.db.DeleteTradeWithEvents(trade)
}

// AddEvent appends a ledger event (add to position, partial or full sell)
// and rewrites the trade from the updated ledger in the same transaction.
func (s *Service) AddEvent(tradeID, userID string, req NewEvent) (*types.TradeResponse, error) {
	if !validEventType(req.Type) {
		return nil, ErrInvalidEventType
	}
	if req.Date.IsZero() {
		req.Date = time.Now()
	}

	trade, err := s.db.GetTrade(tradeID, userID)
	if err != nil {
		return nil, err
	}
	if trade == nil {
		return nil, ErrTradeNotFound
	}

	event := &types.TradeEvent{
		EventID:         uuid.New().String(),
		TradeID:         tradeID,
		Type:            req.Type,
		Date:            req.Date,
		Quantity:        req.Quantity,
		Price:           req.Price,
		StopLossAtEvent: req.StopLossAtEvent,
		Commission:      req.Commission,
		Notes:           req.Notes,
		ScreenshotURL:   req.ScreenshotURL,
	}

	events, err := s.db.ListEvents(tradeID)
	if err != nil {
		return nil, err
	}
	events = append(events, *event)

	snap, anomalies := position.Reconcile(trade, events)
	snap.Apply(trade)
	trade.UpdatedAt = time.Now()

	if err := s.db.SaveEventAndTrade(event, trade); err != nil {
		return nil, err
	}

	logAnomalies(tradeID, anomalies)
	return tradeResponse(trade, anomalies), nil
}

// ListEvents returns a trade's ledger in chronological order
func (s *Service) ListEvents(tradeID, userID string) ([]types.TradeEvent, error) {
	trade, err := s.db.GetTrade(tradeID, userID)
	if err != nil {
		return nil, err
	}
	if trade == nil {
		return nil, ErrTradeNotFound
	}
	return s.db.ListEvents(tradeID)
}

// UpdateEvent edits an existing ledger event and replays the ledger
func (s *Service) UpdateEvent(tradeID, eventID, userID string, req NewEvent) (*types.TradeResponse, error) {
	if req.Type != "" && !validEventType(req.Type) {
		return nil, ErrInvalidEventType
	}

	trade, err := s.db.GetTrade(tradeID, userID)
	if err != nil {
		return nil, err
	}
	if trade == nil {
		return nil, ErrTradeNotFound
	}

	event, err := s.db.GetEvent(eventID, tradeID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}

	if req.Type != "" {
		event.Type = req.Type
	}
	if !req.Date.IsZero() {
		event.Date = req.Date
	}
	event.Quantity = req.Quantity
	event.Price = req.Price
	event.StopLossAtEvent = req.StopLossAtEvent
	event.Commission = req.Commission
	event.Notes = req.Notes
	if req.ScreenshotURL != "" {
		event.ScreenshotURL = req.ScreenshotURL
	}

	events, err := s.db.ListEvents(tradeID)
	if err != nil {
		return nil, err
	}
	for i := range events {
		if events[i].EventID == eventID {
			events[i] = *event
		}
	}

	snap, anomalies := position.Reconcile(trade, events)
	snap.Apply(trade)
	trade.UpdatedAt = time.Now()

	if err := s.db.SaveEventAndTrade(event, trade); err != nil {
		return nil, err
	}

	logAnomalies(tradeID, anomalies)
	return tradeResponse(trade, anomalies), nil
}

// DeleteEvent removes a single ledger event and replays the remaining
// ledger. Deleting the last event deletes the trade itself: a trade with
// no history is not a position.
func (s *Service) DeleteEvent(tradeID, eventID, userID string) (*types.TradeResponse, bool, error) {
	trade, err := s.db.GetTrade(tradeID, userID)
	if err != nil {
		return nil, false, err
	}
	if trade == nil {
		return nil, false, ErrTradeNotFound
	}

	event, err := s.db.GetEvent(eventID, tradeID)
	if err != nil {
		return nil, false, err
	}
	if event == nil {
		return nil, false, ErrEventNotFound
	}

	events, err := s.db.ListEvents(tradeID)
	if err != nil {
		return nil, false, err
	}

	if len(events) <= 1 {
		if err := s.db.DeleteTradeWithEvents(trade); err != nil {
			return nil, false, err
		}
		return nil, true, nil
	}

	remaining := make([]types.TradeEvent, 0, len(events)-1)
	for _, e := range events {
		if e.EventID != eventID {
			remaining = append(remaining, e)
		}
	}

	snap, anomalies := position.Reconcile(trade, remaining)
	snap.Apply(trade)
	trade.UpdatedAt = time.Now()

	if err := s.db.DeleteEventAndSaveTrade(event, trade); err != nil {
		return nil, false, err
	}

	logAnomalies(tradeID, anomalies)
	return tradeResponse(trade, anomalies), false, nil
}

func validEventType(t string) bool {
	switch t {
	case types.EventBuy, types.EventAdd, types.EventSell, types.EventRemove:
		return true
	}
	return false
}

func logAnomalies(tradeID string, anomalies []position.Anomaly) {
	for _, a := range anomalies {
		log.Warn().
			Str("trade_id", tradeID).
			Str("anomaly", a.Code).
			Msg(a.Message)
	}
}

func tradeResponse(trade *types.Trade, anomalies []position.Anomaly) *types.TradeResponse {
	resp := &types.TradeResponse{Trade: *trade}
	for _, a := range anomalies {
		resp.Warnings = append(resp.Warnings, a.Message)
	}
	return resp
}

// snapshotOf rebuilds a snapshot from a trade's stored derived fields, for
// drift comparison against a fresh reconciliation
func snapshotOf(t *types.Trade) position.Snapshot {
	return position.Snapshot{
		EntryPrice:        t.EntryPrice,
		Quantity:          t.Quantity,
		TotalQuantity:     t.TotalQuantity,
		PositionSize:      t.PositionSize,
		TotalInvestment:   t.TotalInvestment,
		ProfitLoss:        t.ProfitLoss,
		TotalCommission:   t.TotalCommission,
		Status:            t.Status,
		StopPrice:         t.StopPrice,
		RiskAmount:        t.RiskAmount,
		IsPartiallyClosed: t.IsPartiallyClosed,
	}
}
