package trading

import (
	"errors"

	"gorm.io/gorm"

	"github.com/zyrticx/tradesmart-api/internal/types"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) GetTrade(tradeID, userID string) (*types.Trade, error) {
	var trade types.Trade
	if err := d.db.Where("trade_id = ? AND user_id = ?", tradeID, userID).First(&trade).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &trade, nil
}

func (d *Database) ListTrades(userID, accountID string) ([]types.Trade, error) {
	var trades []types.Trade
	query := d.db.Where("user_id = ?", userID)
	if accountID != "" {
		query = query.Where("account_id = ?", accountID)
	}
	if err := query.Order("created_at DESC").Find(&trades).Error; err != nil {
		return nil, err
	}
	return trades, nil
}

// ListEvents returns a trade's ledger ordered by event date ascending
func (d *Database) ListEvents(tradeID string) ([]types.TradeEvent, error) {
	var events []types.TradeEvent
	if err := d.db.Where("trade_id = ?", tradeID).Order("date ASC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (d *Database) GetEvent(eventID, tradeID string) (*types.TradeEvent, error) {
	var event types.TradeEvent
	if err := d.db.Where("event_id = ? AND trade_id = ?", eventID, tradeID).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

func (d *Database) SaveTrade(trade *types.Trade) error {
	return d.db.Save(trade).Error
}

// CreateTradeWithEvent writes a new trade and its opening ledger event in
// a single transaction
func (d *Database) CreateTradeWithEvent(trade *types.Trade, event *types.TradeEvent) error {
	tx := d.db.Begin()
	if err := tx.Error; err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(trade).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Create(event).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// SaveEventAndTrade persists a created or updated ledger event together
// with the freshly reconciled trade snapshot. The two rows always change
// together so a reader never sees an event without its effect on the trade.
func (d *Database) SaveEventAndTrade(event *types.TradeEvent, trade *types.Trade) error {
	tx := d.db.Begin()
	if err := tx.Error; err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Save(event).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Save(trade).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// DeleteEventAndSaveTrade removes a ledger event and persists the trade
// reconciled from the remaining events, in one transaction
func (d *Database) DeleteEventAndSaveTrade(event *types.TradeEvent, trade *types.Trade) error {
	tx := d.db.Begin()
	if err := tx.Error; err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Delete(event).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Save(trade).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// DeleteTradeWithEvents removes a trade and its whole ledger in one
// transaction
func (d *Database) DeleteTradeWithEvents(trade *types.Trade) error {
	tx := d.db.Begin()
	if err := tx.Error; err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Where("trade_id = ?", trade.TradeID).Delete(&types.TradeEvent{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Delete(trade).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// ListOpenTrades returns all open trades across users, used by the
// background reconciler sweep
func (d *Database) ListOpenTrades() ([]types.Trade, error) {
	var trades []types.Trade
	if err := d.db.Where("status = ?", types.StatusOpen).Find(&trades).Error; err != nil {
		return nil, err
	}
	return trades, nil
}
