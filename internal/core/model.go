package core

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type TxType string

const (
	TxReceived   TxType = "received"
	TxIssued     TxType = "issued"
	TxAdjustment TxType = "adjustment"
	TxInitial    TxType = "initial"
)

type TxStatus string

const (
	StatusPlanned   TxStatus = "planned"
	StatusConfirmed TxStatus = "confirmed"
	StatusCancelled TxStatus = "cancelled"
)

type AlertFlag string

const (
	AlertNormal     AlertFlag = "normal"
	AlertLowStock   AlertFlag = "low_stock"
	AlertOutOfStock AlertFlag = "out_of_stock"
)

// LocationKey identifies one balance line: an item stored at a location
// within a warehouse.
type LocationKey struct {
	ItemCode      string
	WarehouseCode string
	LocationCode  string
}

func (k LocationKey) String() string {
	return k.ItemCode + "/" + k.WarehouseCode + "/" + k.LocationCode
}

// Incomplete reports whether any key field is blank. Transactions with an
// incomplete key are excluded from aggregation and surfaced as warnings.
func (k LocationKey) Incomplete() bool {
	return k.ItemCode == "" || k.WarehouseCode == "" || k.LocationCode == ""
}

// Transaction is one dated stock movement. Immutable once confirmed; a
// planned transaction may still be edited or cancelled upstream.
type Transaction struct {
	ID            string   `validate:"required"`
	ItemCode      string   `validate:"required"`
	WarehouseCode string   `validate:"required"`
	LocationCode  string   `validate:"required"`
	Type          TxType   `validate:"required,oneof=received issued adjustment initial"`
	Status        TxStatus `validate:"required,oneof=planned confirmed cancelled"`
	Date          time.Time
	Quantity      decimal.Decimal
	UnitCost      decimal.Decimal // used only for received / initial
	PhysicalCount decimal.Decimal // adjustment: new absolute quantity
	BeforeQty     decimal.Decimal // adjustment: quantity immediately prior to the count
	PORef         string          // optional purchase order reference
}

// Key returns the transaction's location key.
func (t Transaction) Key() LocationKey {
	return LocationKey{ItemCode: t.ItemCode, WarehouseCode: t.WarehouseCode, LocationCode: t.LocationCode}
}

// Balance is the authoritative stock line for one location key.
// CurrentQty always equals the sum of all confirmed transaction effects
// applied in date order since the key was created.
type Balance struct {
	Key                 LocationKey
	CurrentQty          decimal.Decimal
	AverageCost         decimal.Decimal // 2-decimal weighted average, confirmed receipts only
	SafetyStock         decimal.Decimal
	Alert               AlertFlag
	LastTransactionDate time.Time
}

// DailyFlow is the net movement for one location key on one calendar date.
type DailyFlow struct {
	Received        decimal.Decimal
	Issued          decimal.Decimal
	PlannedReceived decimal.Decimal
	PlannedIssued   decimal.Decimal
}

// ProjectionEntry is one day of the reconstructed stock series.
// Confirmed quantities satisfy Ending = Opening + Received - Issued;
// ProjectedEnding additionally folds in planned flows.
type ProjectionEntry struct {
	Date            time.Time
	OpeningQty      decimal.Decimal
	ReceivedQty     decimal.Decimal
	IssuedQty       decimal.Decimal
	EndingQty       decimal.Decimal
	PlannedReceived decimal.Decimal
	PlannedIssued   decimal.Decimal
	ProjectedEnding decimal.Decimal
}

// ReconcileResult is the typed outcome of one per-key reconciliation run.
type ReconcileResult struct {
	RunID         string
	Key           LocationKey
	Balance       Balance
	Entries       int
	Warnings      []string
	StockoutDate  time.Time
	StockoutFound bool
}

// BatchResult collects per-key outcomes of a ReconcileAll run. Failures are
// isolated: one key's failure never prevents the remaining keys from running.
type BatchResult struct {
	Succeeded []ReconcileResult
	Failed    map[LocationKey]error
}

// DateOf truncates t to a calendar day in UTC. All dates handled by the
// engine are normalized through this so they compare equal and can serve as
// map keys.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date string.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}

// FormatDate renders a date as YYYY-MM-DD for SQL parameters and logs.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}
