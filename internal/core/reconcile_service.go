package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// Settings are the explicit knobs of the reconciliation engine. They are
// passed into the constructor rather than read from ambient state.
type Settings struct {
	LookbackDays   int // historical window, default 30
	LookaheadDays  int // projection window, default 90
	MergeBatchSize int // projection upsert batch size, default 100
}

// ReconcileService rebuilds the authoritative balance and the daily
// projection series for location keys from the persisted transaction stream.
type ReconcileService interface {
	// Reconcile recomputes the projection window for one location key and
	// merges it into the store. The balance itself is not re-derived; it is
	// the anchor. Returns ErrAnchorMismatch if the balance changes while the
	// run is in flight.
	Reconcile(ctx context.Context, key LocationKey) (*ReconcileResult, error)

	// ApplyConfirmed applies one newly-confirmed transaction to the balance,
	// persists it, and then rebuilds the projection window. This is the
	// "transaction became confirmed" trigger path.
	ApplyConfirmed(ctx context.Context, tx Transaction) (*ReconcileResult, error)

	// ReconcileAll runs Reconcile over every known location key. Per-key
	// failures are collected and reported; they never abort the batch.
	ReconcileAll(ctx context.Context) (*BatchResult, error)
}

type reconcileService struct {
	pool     *pgxpool.Pool
	settings Settings
	logger   *logrus.Logger
	now      func() time.Time
}

func NewReconcileService(pool *pgxpool.Pool, settings Settings, logger *logrus.Logger) ReconcileService {
	if settings.LookbackDays <= 0 {
		settings.LookbackDays = 30
	}
	if settings.LookaheadDays <= 0 {
		settings.LookaheadDays = 90
	}
	if settings.MergeBatchSize <= 0 {
		settings.MergeBatchSize = 100
	}
	return &reconcileService{pool: pool, settings: settings, logger: logger, now: time.Now}
}

// ── Reconcile ─────────────────────────────────────────────────────────────────

func (s *reconcileService) Reconcile(ctx context.Context, key LocationKey) (*ReconcileResult, error) {
	today := DateOf(s.now())
	from := today.AddDate(0, 0, -s.settings.LookbackDays)
	to := today.AddDate(0, 0, s.settings.LookaheadDays)

	balance, err := s.fetchBalance(ctx, key)
	if err != nil {
		return nil, err
	}

	txs, err := s.fetchTransactions(ctx, key, from, to)
	if err != nil {
		return nil, err
	}

	flows, warnings := AggregateByDate(txs)
	entries := BuildProjection(balance.CurrentQty, flows, today, s.settings.LookbackDays, s.settings.LookaheadDays)

	// Anchor fidelity: the balance must not have moved while we computed.
	// A concurrent confirmation between fetch and merge would silently skew
	// every entry, so re-read and abandon the run on drift.
	latest, err := s.fetchBalance(ctx, key)
	if err != nil {
		return nil, err
	}
	if !latest.CurrentQty.Equal(balance.CurrentQty) {
		return nil, fmt.Errorf("key %s: balance moved from %s to %s during run: %w",
			key, balance.CurrentQty, latest.CurrentQty, ErrAnchorMismatch)
	}

	if err := s.mergeEntries(ctx, key, entries); err != nil {
		return nil, err
	}

	balance.Alert = AlertFor(balance.CurrentQty, balance.SafetyStock)
	if err := s.upsertBalance(ctx, balance); err != nil {
		return nil, err
	}

	result := &ReconcileResult{
		RunID:    uuid.NewString(),
		Key:      key,
		Balance:  balance,
		Entries:  len(entries),
		Warnings: warnings,
	}
	if date, found := PredictStockout(entries, today); found {
		result.StockoutDate = date
		result.StockoutFound = true
		s.logger.WithFields(logrus.Fields{
			"key":  key.String(),
			"date": FormatDate(date),
		}).Warn("stockout predicted")
	}
	for _, w := range warnings {
		s.logger.WithField("key", key.String()).Warn(w)
	}
	return result, nil
}

// ── ApplyConfirmed ────────────────────────────────────────────────────────────

func (s *reconcileService) ApplyConfirmed(ctx context.Context, tx Transaction) (*ReconcileResult, error) {
	if tx.Status != StatusConfirmed {
		return nil, fmt.Errorf("transaction %s: status %s cannot affect the balance", tx.ID, tx.Status)
	}
	key := tx.Key()
	if key.Incomplete() {
		return nil, fmt.Errorf("transaction %s: missing key fields", tx.ID)
	}

	balance, err := s.fetchBalance(ctx, key)
	if err != nil {
		return nil, err
	}

	updated, warnings := ApplyTransaction(balance, tx, s.now())
	if err := s.upsertBalance(ctx, updated); err != nil {
		return nil, err
	}
	for _, w := range warnings {
		s.logger.WithField("key", key.String()).Warn(w)
	}

	result, err := s.Reconcile(ctx, key)
	if err != nil {
		return nil, err
	}
	result.Warnings = append(warnings, result.Warnings...)
	return result, nil
}

// ── ReconcileAll ──────────────────────────────────────────────────────────────

func (s *reconcileService) ReconcileAll(ctx context.Context) (*BatchResult, error) {
	keys, err := s.fetchKeys(ctx)
	if err != nil {
		return nil, err
	}

	batch := &BatchResult{Failed: make(map[LocationKey]error)}
	for _, key := range keys {
		result, err := s.Reconcile(ctx, key)
		if err != nil {
			s.logger.WithField("key", key.String()).WithError(err).Error("reconciliation failed")
			batch.Failed[key] = err
			continue
		}
		batch.Succeeded = append(batch.Succeeded, *result)
	}
	return batch, nil
}

// ── Store access ──────────────────────────────────────────────────────────────

func (s *reconcileService) fetchBalance(ctx context.Context, key LocationKey) (Balance, error) {
	b := Balance{Key: key, Alert: AlertNormal}
	var lastDate *time.Time
	err := s.pool.QueryRow(ctx, `
		SELECT current_qty, average_cost, safety_stock, alert_flag, last_transaction_date
		FROM balances
		WHERE item_code = $1 AND warehouse_code = $2 AND location_code = $3
	`, key.ItemCode, key.WarehouseCode, key.LocationCode).
		Scan(&b.CurrentQty, &b.AverageCost, &b.SafetyStock, &b.Alert, &lastDate)
	if errors.Is(err, pgx.ErrNoRows) {
		// First reference to this key: everything starts at zero.
		return b, nil
	}
	if err != nil {
		return b, fmt.Errorf("failed to fetch balance for %s: %w", key, err)
	}
	if lastDate != nil {
		b.LastTransactionDate = DateOf(*lastDate)
	}
	return b, nil
}

func (s *reconcileService) fetchTransactions(ctx context.Context, key LocationKey, from, to time.Time) ([]Transaction, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, item_code, warehouse_code, location_code, tx_type, status,
		       tx_date, quantity, unit_cost, physical_count, before_qty, COALESCE(po_ref, '')
		FROM transactions
		WHERE item_code = $1 AND warehouse_code = $2 AND location_code = $3
		  AND status <> 'cancelled'
		  AND tx_date BETWEEN $4 AND $5
		ORDER BY tx_date ASC, id ASC
	`, key.ItemCode, key.WarehouseCode, key.LocationCode, FormatDate(from), FormatDate(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions for %s: %w", key, err)
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		var tx Transaction
		var date time.Time
		if err := rows.Scan(
			&tx.ID, &tx.ItemCode, &tx.WarehouseCode, &tx.LocationCode, &tx.Type, &tx.Status,
			&date, &tx.Quantity, &tx.UnitCost, &tx.PhysicalCount, &tx.BeforeQty, &tx.PORef,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		tx.Date = DateOf(date)
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return txs, nil
}

func (s *reconcileService) fetchKeys(ctx context.Context) ([]LocationKey, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT item_code, warehouse_code, location_code FROM balances
		UNION
		SELECT item_code, warehouse_code, location_code FROM transactions WHERE status <> 'cancelled'
		ORDER BY 1, 2, 3
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query location keys: %w", err)
	}
	defer rows.Close()

	var keys []LocationKey
	for rows.Next() {
		var k LocationKey
		if err := rows.Scan(&k.ItemCode, &k.WarehouseCode, &k.LocationCode); err != nil {
			return nil, fmt.Errorf("failed to scan location key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *reconcileService) upsertBalance(ctx context.Context, b Balance) error {
	var lastDate any
	if !b.LastTransactionDate.IsZero() {
		lastDate = FormatDate(b.LastTransactionDate)
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO balances (item_code, warehouse_code, location_code,
		                      current_qty, average_cost, safety_stock, alert_flag, last_transaction_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (item_code, warehouse_code, location_code) DO UPDATE SET
			current_qty           = EXCLUDED.current_qty,
			average_cost          = EXCLUDED.average_cost,
			alert_flag            = EXCLUDED.alert_flag,
			last_transaction_date = COALESCE(EXCLUDED.last_transaction_date, balances.last_transaction_date),
			updated_at            = NOW()
	`, b.Key.ItemCode, b.Key.WarehouseCode, b.Key.LocationCode,
		b.CurrentQty, b.AverageCost, b.SafetyStock, string(b.Alert), lastDate)
	if err != nil {
		return fmt.Errorf("failed to upsert balance for %s: %w", b.Key, err)
	}
	return nil
}
