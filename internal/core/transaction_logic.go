package core

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

// RawTransaction is a transaction record as delivered by an external source
// (import file, API payload): everything still a string.
type RawTransaction struct {
	ID            string
	ItemCode      string
	WarehouseCode string
	LocationCode  string
	Type          string
	Status        string
	Date          string
	Quantity      string
	UnitCost      string
	PhysicalCount string
	BeforeQty     string
	PORef         string
}

// ParseTransaction converts a raw external record into a typed Transaction,
// validating it at the boundary. Blank numeric fields parse as zero; a blank
// unit cost on an issue is normal, so only malformed values fail.
func ParseTransaction(raw RawTransaction) (Transaction, error) {
	date, err := ParseDate(raw.Date)
	if err != nil {
		return Transaction{}, fmt.Errorf("transaction %s: %w", raw.ID, err)
	}

	qty, err := parseDecimal(raw.Quantity)
	if err != nil {
		return Transaction{}, fmt.Errorf("transaction %s: quantity: %w", raw.ID, err)
	}
	cost, err := parseDecimal(raw.UnitCost)
	if err != nil {
		return Transaction{}, fmt.Errorf("transaction %s: unit cost: %w", raw.ID, err)
	}
	physical, err := parseDecimal(raw.PhysicalCount)
	if err != nil {
		return Transaction{}, fmt.Errorf("transaction %s: physical count: %w", raw.ID, err)
	}
	before, err := parseDecimal(raw.BeforeQty)
	if err != nil {
		return Transaction{}, fmt.Errorf("transaction %s: before qty: %w", raw.ID, err)
	}

	tx := Transaction{
		ID:            raw.ID,
		ItemCode:      raw.ItemCode,
		WarehouseCode: raw.WarehouseCode,
		LocationCode:  raw.LocationCode,
		Type:          TxType(raw.Type),
		Status:        TxStatus(raw.Status),
		Date:          DateOf(date),
		Quantity:      qty,
		UnitCost:      cost,
		PhysicalCount: physical,
		BeforeQty:     before,
		PORef:         raw.PORef,
	}
	if err := validate.Struct(tx); err != nil {
		return Transaction{}, fmt.Errorf("transaction %s: validation failed: %w", raw.ID, err)
	}
	return tx, nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return d, nil
}
