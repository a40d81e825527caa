package migrations

import (
	"gorm.io/gorm"

	"github.com/zyrticx/tradesmart-api/internal/position"
	"github.com/zyrticx/tradesmart-api/internal/types"
)

// BackfillEventCommission moves commission amounts out of the legacy
// "Commission: $<amount>" notes encoding into the structured commission
// column. Only rows with a zero commission and the marker in their notes
// are touched, so the migration is safe to run repeatedly.
func BackfillEventCommission(db *gorm.DB) error {
	var legacy []types.TradeEvent
	err := db.Where("commission = 0 AND notes LIKE ?", "%Commission: $%").Find(&legacy).Error
	if err != nil {
		return err
	}

	for i := range legacy {
		event := &legacy[i]

		amount, clean := position.ParseCommission(event.Notes)
		if amount == 0 {
			continue
		}

		event.Commission = amount
		event.Notes = clean
		if err := db.Save(event).Error; err != nil {
			return err
		}
	}

	return nil
}
