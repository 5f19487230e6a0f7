package core

import "github.com/shopspring/decimal"

// NextAverageCost recomputes the moving-average unit cost after a receipt of
// addQty units at addCost each.
//
// Issuance never changes unit cost, so a non-positive addQty returns the
// current cost unchanged. If the resulting quantity is non-positive despite a
// receipt the average is undefined and resets to zero. Otherwise the new cost
// is the quantity-weighted average of the existing stock and the receipt,
// rounded to 2 decimal places (half away from zero, the rounding rule used
// everywhere in this engine).
func NextAverageCost(currentQty, currentCost, addQty, addCost decimal.Decimal) decimal.Decimal {
	if addQty.LessThanOrEqual(decimal.Zero) {
		return currentCost
	}
	newQty := currentQty.Add(addQty)
	if newQty.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	total := currentQty.Mul(currentCost).Add(addQty.Mul(addCost))
	return total.Div(newQty).Round(2)
}
