package migrations

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/zyrticx/tradesmart-api/internal/types"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&types.TradeEvent{}))
	return db
}

func TestBackfillEventCommission(t *testing.T) {
	db := setupDB(t)

	legacy := types.TradeEvent{
		EventID:  "evt-legacy",
		TradeID:  "trd-1",
		Type:     types.EventBuy,
		Quantity: 10,
		Price:    100,
		Notes:    "Entry on breakout\nCommission: $12.50",
	}
	modern := types.TradeEvent{
		EventID:    "evt-modern",
		TradeID:    "trd-1",
		Type:       types.EventSell,
		Quantity:   10,
		Price:      110,
		Commission: 5,
		Notes:      "Commission: $99.99", // already structured, text must be left alone
	}
	require.NoError(t, db.Create(&legacy).Error)
	require.NoError(t, db.Create(&modern).Error)

	require.NoError(t, BackfillEventCommission(db))

	var got types.TradeEvent
	require.NoError(t, db.Where("event_id = ?", "evt-legacy").First(&got).Error)
	assert.Equal(t, 12.5, got.Commission)
	assert.Equal(t, "Entry on breakout", got.Notes)

	got = types.TradeEvent{}
	require.NoError(t, db.Where("event_id = ?", "evt-modern").First(&got).Error)
	assert.Equal(t, 5.0, got.Commission, "rows with a structured commission are untouched")
	assert.Equal(t, "Commission: $99.99", got.Notes)

	// Running again changes nothing
	require.NoError(t, BackfillEventCommission(db))
	got = types.TradeEvent{}
	require.NoError(t, db.Where("event_id = ?", "evt-legacy").First(&got).Error)
	assert.Equal(t, 12.5, got.Commission)
}
