package core

import (
	"fmt"
	"time"
)

// AggregateByDate reduces the transactions of one location key into per-date
// net-flow buckets. Confirmed movements land in the actual buckets, planned
// movements in the planned buckets, cancelled transactions are skipped.
//
// An adjustment contributes the signed difference between the physical count
// and the quantity before the count: a surplus counts as a receipt, a
// shortage as an issue.
//
// Transactions with an incomplete location key or an unrecognized type are
// excluded; each exclusion is reported in the returned warnings rather than
// failing the run.
func AggregateByDate(txs []Transaction) (map[time.Time]DailyFlow, []string) {
	flows := make(map[time.Time]DailyFlow, len(txs))
	var warnings []string

	for _, tx := range txs {
		if tx.Status == StatusCancelled {
			continue
		}
		if tx.Key().Incomplete() {
			warnings = append(warnings, fmt.Sprintf("transaction %s: missing key fields, excluded", tx.ID))
			continue
		}

		day := DateOf(tx.Date)
		flow := flows[day]

		switch tx.Status {
		case StatusConfirmed:
			switch tx.Type {
			case TxReceived, TxInitial:
				flow.Received = flow.Received.Add(tx.Quantity)
			case TxIssued:
				flow.Issued = flow.Issued.Add(tx.Quantity)
			case TxAdjustment:
				diff := tx.PhysicalCount.Sub(tx.BeforeQty)
				switch {
				case diff.IsPositive():
					flow.Received = flow.Received.Add(diff)
				case diff.IsNegative():
					flow.Issued = flow.Issued.Add(diff.Abs())
				}
			default:
				warnings = append(warnings, fmt.Sprintf("transaction %s: unknown type %q, excluded", tx.ID, tx.Type))
				continue
			}
		case StatusPlanned:
			switch tx.Type {
			case TxReceived, TxInitial:
				flow.PlannedReceived = flow.PlannedReceived.Add(tx.Quantity)
			case TxIssued:
				flow.PlannedIssued = flow.PlannedIssued.Add(tx.Quantity)
			case TxAdjustment:
				// A planned count has no quantity effect until confirmed.
			default:
				warnings = append(warnings, fmt.Sprintf("transaction %s: unknown type %q, excluded", tx.ID, tx.Type))
				continue
			}
		default:
			warnings = append(warnings, fmt.Sprintf("transaction %s: unknown status %q, excluded", tx.ID, tx.Status))
			continue
		}

		flows[day] = flow
	}
	return flows, warnings
}
