package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// BuildProjection reconstructs the contiguous daily stock series for one
// location key over [today-lookback, today+lookahead], anchored on the
// authoritative current quantity.
//
// currentQty is defined to equal today's ending quantity, so today's opening
// is derived by inverting the ending equation against today's confirmed
// flows. The future segment is then rolled forward day by day; the projected
// series additionally folds in planned flows. The historical segment is
// rolled backward starting from the day nearest to today: each older day's
// opening is derived from the already-solved opening of the day after it.
// Iterating history oldest-first would break that chain, because no opening
// is known yet to invert against.
//
// The returned slice is ordered by date and contains exactly
// lookback+1+lookahead entries.
func BuildProjection(currentQty decimal.Decimal, flows map[time.Time]DailyFlow, today time.Time, lookback, lookahead int) []ProjectionEntry {
	today = DateOf(today)
	t0 := flows[today]
	todayOpening := currentQty.Sub(t0.Received).Add(t0.Issued)

	entries := make([]ProjectionEntry, lookback+1+lookahead)

	// Forward pass: today through today+lookahead.
	opening := todayOpening
	projected := todayOpening
	for i := 0; i <= lookahead; i++ {
		day := today.AddDate(0, 0, i)
		flow := flows[day]
		ending := opening.Add(flow.Received).Sub(flow.Issued)
		projected = projected.Add(flow.Received).Sub(flow.Issued).
			Add(flow.PlannedReceived).Sub(flow.PlannedIssued)
		entries[lookback+i] = ProjectionEntry{
			Date:            day,
			OpeningQty:      opening,
			ReceivedQty:     flow.Received,
			IssuedQty:       flow.Issued,
			EndingQty:       ending,
			PlannedReceived: flow.PlannedReceived,
			PlannedIssued:   flow.PlannedIssued,
			ProjectedEnding: projected,
		}
		opening = ending
	}

	// Backward pass: today-1 down to today-lookback, nearest day first.
	// openingNext is the opening of the day after the one being solved; by
	// construction each solved day's ending equals it.
	openingNext := todayOpening
	for i := 1; i <= lookback; i++ {
		day := today.AddDate(0, 0, -i)
		flow := flows[day]
		dayOpening := openingNext.Sub(flow.Received).Add(flow.Issued)
		ending := dayOpening.Add(flow.Received).Sub(flow.Issued)
		// History is actuals only: planned flows are zero and the projected
		// series coincides with the confirmed one.
		entries[lookback-i] = ProjectionEntry{
			Date:            day,
			OpeningQty:      dayOpening,
			ReceivedQty:     flow.Received,
			IssuedQty:       flow.Issued,
			EndingQty:       ending,
			PlannedReceived: decimal.Zero,
			PlannedIssued:   decimal.Zero,
			ProjectedEnding: ending,
		}
		openingNext = dayOpening
	}

	return entries
}

// PredictStockout scans the future segment of the series in date order and
// returns the first date whose projected ending quantity is non-positive.
// The signal is informational; history entries are never considered.
func PredictStockout(entries []ProjectionEntry, today time.Time) (time.Time, bool) {
	today = DateOf(today)
	for _, e := range entries {
		if e.Date.Before(today) {
			continue
		}
		if e.ProjectedEnding.LessThanOrEqual(decimal.Zero) {
			return e.Date, true
		}
	}
	return time.Time{}, false
}
