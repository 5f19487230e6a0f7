package core_test

import (
	"testing"
	"time"

	"stock-reconciler/internal/core"
)

var testKey = core.LocationKey{ItemCode: "ITM-1", WarehouseCode: "WH-1", LocationCode: "A-01"}

func confirmedTx(id string, txType core.TxType, date time.Time) core.Transaction {
	return core.Transaction{
		ID:            id,
		ItemCode:      testKey.ItemCode,
		WarehouseCode: testKey.WarehouseCode,
		LocationCode:  testKey.LocationCode,
		Type:          txType,
		Status:        core.StatusConfirmed,
		Date:          date,
	}
}

func TestAlertFor(t *testing.T) {
	tests := []struct {
		qty         string
		safetyStock string
		want        core.AlertFlag
	}{
		{"0", "10", core.AlertOutOfStock},
		{"-3", "10", core.AlertOutOfStock},
		{"5", "10", core.AlertLowStock},
		{"10", "10", core.AlertNormal},
		{"11", "10", core.AlertNormal},
	}
	for _, tt := range tests {
		if got := core.AlertFor(dec(tt.qty), dec(tt.safetyStock)); got != tt.want {
			t.Errorf("AlertFor(%s, %s) = %s, want %s", tt.qty, tt.safetyStock, got, tt.want)
		}
	}
}

func TestApplyTransaction_ReceiveThenIssue(t *testing.T) {
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	b := core.Balance{Key: testKey, SafetyStock: dec("20")}

	receive := confirmedTx("t1", core.TxReceived, today)
	receive.Quantity = dec("100")
	receive.UnitCost = dec("10.00")

	b, warnings := core.ApplyTransaction(b, receive, today)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if !b.CurrentQty.Equal(dec("100")) || !b.AverageCost.Equal(dec("10.00")) {
		t.Fatalf("after receipt: qty=%s cost=%s, want 100 / 10.00", b.CurrentQty, b.AverageCost)
	}

	issue := confirmedTx("t2", core.TxIssued, today)
	issue.Quantity = dec("30")

	b, warnings = core.ApplyTransaction(b, issue, today)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if !b.CurrentQty.Equal(dec("70")) {
		t.Errorf("after issue: qty=%s, want 70", b.CurrentQty)
	}
	if !b.AverageCost.Equal(dec("10.00")) {
		t.Errorf("issue must not change cost, got %s", b.AverageCost)
	}
	if b.Alert != core.AlertNormal {
		t.Errorf("alert = %s, want normal", b.Alert)
	}
	if !b.LastTransactionDate.Equal(today) {
		t.Errorf("last transaction date = %s, want %s", b.LastTransactionDate, today)
	}
}

func TestApplyTransaction_NegativeIssueWarns(t *testing.T) {
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	b := core.Balance{Key: testKey, CurrentQty: dec("10"), SafetyStock: dec("5")}

	issue := confirmedTx("t1", core.TxIssued, today)
	issue.Quantity = dec("25")

	b, warnings := core.ApplyTransaction(b, issue, today)
	if !b.CurrentQty.Equal(dec("-15")) {
		t.Errorf("qty = %s, want -15 (going negative is allowed)", b.CurrentQty)
	}
	if len(warnings) != 1 {
		t.Errorf("expected one negative-balance warning, got %v", warnings)
	}
	if b.Alert != core.AlertOutOfStock {
		t.Errorf("alert = %s, want out_of_stock", b.Alert)
	}
}

func TestApplyTransaction_AdjustmentOverwrites(t *testing.T) {
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	b := core.Balance{Key: testKey, CurrentQty: dec("70"), AverageCost: dec("10.00"), SafetyStock: dec("5")}

	adj := confirmedTx("t1", core.TxAdjustment, today)
	adj.PhysicalCount = dec("65")
	adj.BeforeQty = dec("70")

	b, _ = core.ApplyTransaction(b, adj, today)
	if !b.CurrentQty.Equal(dec("65")) {
		t.Errorf("qty = %s, want physical count 65", b.CurrentQty)
	}
	if !b.AverageCost.Equal(dec("10.00")) {
		t.Errorf("adjustment must not change cost, got %s", b.AverageCost)
	}
}

func TestApplyTransaction_InitialOverwritesCost(t *testing.T) {
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	b := core.Balance{Key: testKey, CurrentQty: dec("40"), AverageCost: dec("9.00")}

	initial := confirmedTx("t1", core.TxInitial, today)
	initial.Quantity = dec("120")
	initial.UnitCost = dec("7.50")

	b, _ = core.ApplyTransaction(b, initial, today)
	if !b.CurrentQty.Equal(dec("120")) {
		t.Errorf("qty = %s, want 120", b.CurrentQty)
	}
	if !b.AverageCost.Equal(dec("7.50")) {
		t.Errorf("cost = %s, want 7.50 (initial bypasses the weighted average)", b.AverageCost)
	}
}

func TestApplyTransaction_MissingDateUsesToday(t *testing.T) {
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	b := core.Balance{Key: testKey}

	receive := confirmedTx("t1", core.TxReceived, time.Time{})
	receive.Quantity = dec("5")

	b, _ = core.ApplyTransaction(b, receive, today)
	if !b.LastTransactionDate.Equal(today) {
		t.Errorf("last transaction date = %s, want today %s", b.LastTransactionDate, today)
	}
}
