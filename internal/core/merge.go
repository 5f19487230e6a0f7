package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const upsertEntrySQL = `
	INSERT INTO projection_entries (item_code, warehouse_code, location_code, entry_date,
	                                opening_qty, received_qty, issued_qty, ending_qty,
	                                planned_received_qty, planned_issued_qty, projected_ending_qty)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (item_code, warehouse_code, location_code, entry_date) DO UPDATE SET
		opening_qty          = EXCLUDED.opening_qty,
		received_qty         = EXCLUDED.received_qty,
		issued_qty           = EXCLUDED.issued_qty,
		ending_qty           = EXCLUDED.ending_qty,
		planned_received_qty = EXCLUDED.planned_received_qty,
		planned_issued_qty   = EXCLUDED.planned_issued_qty,
		projected_ending_qty = EXCLUDED.projected_ending_qty,
		updated_at           = NOW()`

// mergeEntries upserts the recomputed series into projection_entries, keyed
// by (item, warehouse, location, date). Existing rows inside the window are
// fully replaced, which makes repeated recomputation idempotent; rows outside
// the window are never touched. Writes go out in batches inside a single
// transaction, so a failed merge leaves the previous series intact.
func (s *reconcileService) mergeEntries(ctx context.Context, key LocationKey, entries []ProjectionEntry) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin merge transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	size := s.settings.MergeBatchSize
	for start := 0; start < len(entries); start += size {
		end := start + size
		if end > len(entries) {
			end = len(entries)
		}

		batch := &pgx.Batch{}
		for _, e := range entries[start:end] {
			batch.Queue(upsertEntrySQL,
				key.ItemCode, key.WarehouseCode, key.LocationCode, FormatDate(e.Date),
				e.OpeningQty, e.ReceivedQty, e.IssuedQty, e.EndingQty,
				e.PlannedReceived, e.PlannedIssued, e.ProjectedEnding)
		}

		results := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return fmt.Errorf("failed to upsert projection entry for %s: %w", key, err)
			}
		}
		if err := results.Close(); err != nil {
			return fmt.Errorf("failed to close merge batch for %s: %w", key, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit merge for %s: %w", key, err)
	}
	return nil
}
