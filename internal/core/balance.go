package core

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AlertFor classifies a stock level against the configured safety stock.
// The same classification is applied to the authoritative balance after every
// update and to projected future levels.
func AlertFor(qty, safetyStock decimal.Decimal) AlertFlag {
	switch {
	case qty.LessThanOrEqual(decimal.Zero):
		return AlertOutOfStock
	case qty.LessThan(safetyStock):
		return AlertLowStock
	default:
		return AlertNormal
	}
}

// ApplyTransaction applies one confirmed transaction's effect to the balance
// and returns the updated balance. Issuing below zero is permitted; it is
// reported as a warning and flagged out_of_stock, never rejected.
func ApplyTransaction(b Balance, tx Transaction, today time.Time) (Balance, []string) {
	var warnings []string

	switch tx.Type {
	case TxReceived:
		b.AverageCost = NextAverageCost(b.CurrentQty, b.AverageCost, tx.Quantity, tx.UnitCost)
		b.CurrentQty = b.CurrentQty.Add(tx.Quantity)
	case TxIssued:
		b.CurrentQty = b.CurrentQty.Sub(tx.Quantity)
		if b.CurrentQty.IsNegative() {
			warnings = append(warnings, fmt.Sprintf(
				"transaction %s: balance for %s went negative (%s)", tx.ID, tx.Key(), b.CurrentQty))
		}
	case TxAdjustment:
		b.CurrentQty = tx.PhysicalCount
	case TxInitial:
		// Opening stock overwrites both quantity and cost outright.
		b.CurrentQty = tx.Quantity
		b.AverageCost = tx.UnitCost.Round(2)
	default:
		warnings = append(warnings, fmt.Sprintf("transaction %s: unknown type %q, balance unchanged", tx.ID, tx.Type))
		return b, warnings
	}

	b.Alert = AlertFor(b.CurrentQty, b.SafetyStock)
	if tx.Date.IsZero() {
		b.LastTransactionDate = DateOf(today)
	} else {
		b.LastTransactionDate = DateOf(tx.Date)
	}
	return b, warnings
}
