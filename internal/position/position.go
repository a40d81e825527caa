// Package position reconciles a trade's event ledger into its derived
// state. The ledger is the source of truth: every derived field on a trade
// (entry price, open quantity, realized P/L, commission, stop, risk, status)
// is a pure function of its events, and every write path recomputes the
// whole snapshot rather than patching individual fields.
//
// Accounting is average-cost: all bought units share one blended average
// price and sells are priced out against it, not matched FIFO/LIFO lots.
// That is a deliberate carry-over from the legacy data, not a bug.
package position

import (
	"fmt"
	"math"
	"sort"

	"github.com/zyrticx/tradesmart-api/internal/types"
)

// Anomaly codes surfaced by Reconcile
const (
	AnomalyOversell       = "oversell"
	AnomalySellWithoutBuy = "sell_without_buy"
)

// Anomaly is a data-integrity problem found while replaying the ledger.
// Anomalies are reported, never silently repaired: the raw numbers stay in
// the snapshot so the bad event sequence remains visible to the user.
type Anomaly struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Snapshot holds every derived trade field produced by a reconciliation
type Snapshot struct {
	EntryPrice        float64
	Quantity          float64
	TotalQuantity     float64
	PositionSize      float64
	TotalInvestment   float64
	ProfitLoss        float64
	TotalCommission   float64
	Status            string
	StopPrice         float64
	RiskAmount        float64
	IsPartiallyClosed bool
}

// Apply copies the snapshot onto a trade's derived fields
func (s Snapshot) Apply(t *types.Trade) {
	t.EntryPrice = s.EntryPrice
	t.Quantity = s.Quantity
	t.TotalQuantity = s.TotalQuantity
	t.PositionSize = s.PositionSize
	t.TotalInvestment = s.TotalInvestment
	t.ProfitLoss = s.ProfitLoss
	t.TotalCommission = s.TotalCommission
	t.Status = s.Status
	t.StopPrice = s.StopPrice
	t.RiskAmount = s.RiskAmount
	t.IsPartiallyClosed = s.IsPartiallyClosed
}

// Reconcile replays a trade's event ledger and returns the derived snapshot
// along with any data-integrity anomalies it found. It is pure: the inputs
// are not mutated and the same ledger always yields the same snapshot.
//
// Events are ordered by date with a stable sort, so events sharing a
// timestamp keep their relative insertion order. Malformed numeric values
// (NaN, infinities) are treated as zero rather than propagated.
func Reconcile(trade *types.Trade, events []types.TradeEvent) (Snapshot, []Anomaly) {
	sorted := make([]types.TradeEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	var (
		totalBuyQty    float64
		totalBuyValue  float64
		totalSellQty   float64
		totalSellValue float64
		commission     float64
		latestStop     float64
		sellCount      int
	)

	for _, e := range sorted {
		qty := sanitize(e.Quantity)
		price := sanitize(e.Price)

		switch e.Type {
		case types.EventBuy, types.EventAdd:
			totalBuyQty += qty
			totalBuyValue += qty * price
		case types.EventSell, types.EventRemove:
			totalSellQty += qty
			totalSellValue += qty * price
			sellCount++
		}

		commission += EventCommission(sanitize(e.Commission), e.Notes)

		if stop := sanitize(e.StopLossAtEvent); stop > 0 {
			latestStop = stop
		}
	}

	avgBuyPrice := 0.0
	if totalBuyQty > 0 {
		avgBuyPrice = totalBuyValue / totalBuyQty
	}

	// Sells are priced out against the blended average cost
	realizedPL := totalSellValue - avgBuyPrice*totalSellQty
	currentQty := totalBuyQty - totalSellQty

	var anomalies []Anomaly
	if totalSellQty > 0 && totalBuyQty == 0 {
		anomalies = append(anomalies, Anomaly{
			Code:    AnomalySellWithoutBuy,
			Message: "ledger contains sells but no recorded purchase; realized P/L equals full sale proceeds",
		})
	} else if currentQty < 0 {
		anomalies = append(anomalies, Anomaly{
			Code:    AnomalyOversell,
			Message: fmt.Sprintf("sold %.4f units against %.4f bought; open quantity is negative", totalSellQty, totalBuyQty),
		})
	}

	stopPrice := latestStop
	if stopPrice == 0 {
		stopPrice = sanitize(trade.InitialStopPrice)
	}

	status := types.StatusOpen
	if currentQty <= 0 {
		status = types.StatusClosed
	}

	riskAmount := 0.0
	if status == types.StatusOpen && avgBuyPrice > 0 && stopPrice > 0 {
		if trade.Direction == types.DirectionShort {
			riskAmount = math.Max(0, stopPrice-avgBuyPrice) * currentQty
		} else {
			riskAmount = math.Max(0, avgBuyPrice-stopPrice) * currentQty
		}
	}

	return Snapshot{
		EntryPrice:        avgBuyPrice,
		Quantity:          currentQty,
		TotalQuantity:     totalBuyQty,
		PositionSize:      currentQty * avgBuyPrice,
		TotalInvestment:   totalBuyValue,
		ProfitLoss:        realizedPL - commission,
		TotalCommission:   commission,
		Status:            status,
		StopPrice:         stopPrice,
		RiskAmount:        riskAmount,
		IsPartiallyClosed: sellCount > 0 && status == types.StatusOpen,
	}, anomalies
}

// sanitize coerces malformed numeric input to zero
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
