package core_test

import (
	"strings"
	"testing"
	"time"

	"stock-reconciler/internal/core"
)

func TestAggregateByDate_Buckets(t *testing.T) {
	d1 := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	receive := confirmedTx("t1", core.TxReceived, d1)
	receive.Quantity = dec("100")

	issue := confirmedTx("t2", core.TxIssued, d1)
	issue.Quantity = dec("30")

	initial := confirmedTx("t3", core.TxInitial, d2)
	initial.Quantity = dec("10")

	plannedReceive := confirmedTx("t4", core.TxReceived, d2)
	plannedReceive.Status = core.StatusPlanned
	plannedReceive.Quantity = dec("40")

	plannedIssue := confirmedTx("t5", core.TxIssued, d2)
	plannedIssue.Status = core.StatusPlanned
	plannedIssue.Quantity = dec("15")

	cancelled := confirmedTx("t6", core.TxReceived, d2)
	cancelled.Status = core.StatusCancelled
	cancelled.Quantity = dec("999")

	flows, warnings := core.AggregateByDate([]core.Transaction{
		receive, issue, initial, plannedReceive, plannedIssue, cancelled,
	})
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(flows) != 2 {
		t.Fatalf("expected flows on 2 dates, got %d", len(flows))
	}

	f1 := flows[d1]
	if !f1.Received.Equal(dec("100")) || !f1.Issued.Equal(dec("30")) {
		t.Errorf("day 1: received=%s issued=%s, want 100 / 30", f1.Received, f1.Issued)
	}

	f2 := flows[d2]
	if !f2.Received.Equal(dec("10")) {
		t.Errorf("initial must count as received, got %s", f2.Received)
	}
	if !f2.PlannedReceived.Equal(dec("40")) || !f2.PlannedIssued.Equal(dec("15")) {
		t.Errorf("day 2 planned: received=%s issued=%s, want 40 / 15", f2.PlannedReceived, f2.PlannedIssued)
	}
}

func TestAggregateByDate_AdjustmentSplit(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	shortage := confirmedTx("t1", core.TxAdjustment, day)
	shortage.PhysicalCount = dec("65")
	shortage.BeforeQty = dec("70")

	surplus := confirmedTx("t2", core.TxAdjustment, day)
	surplus.PhysicalCount = dec("12")
	surplus.BeforeQty = dec("10")

	noop := confirmedTx("t3", core.TxAdjustment, day)
	noop.PhysicalCount = dec("50")
	noop.BeforeQty = dec("50")

	flows, warnings := core.AggregateByDate([]core.Transaction{shortage, surplus, noop})
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}

	f := flows[day]
	if !f.Issued.Equal(dec("5")) {
		t.Errorf("shortage of 5 must land in issued, got %s", f.Issued)
	}
	if !f.Received.Equal(dec("2")) {
		t.Errorf("surplus of 2 must land in received, got %s", f.Received)
	}
}

func TestAggregateByDate_Exclusions(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	missingKey := confirmedTx("t1", core.TxReceived, day)
	missingKey.LocationCode = ""
	missingKey.Quantity = dec("10")

	unknownType := confirmedTx("t2", "transferred", day)
	unknownType.Quantity = dec("10")

	flows, warnings := core.AggregateByDate([]core.Transaction{missingKey, unknownType})
	if len(flows) != 0 {
		t.Errorf("excluded transactions must not create buckets, got %v", flows)
	}
	if len(warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %v", warnings)
	}
	if !strings.Contains(warnings[0], "missing key fields") {
		t.Errorf("warning %q should mention missing key fields", warnings[0])
	}
	if !strings.Contains(warnings[1], "unknown type") {
		t.Errorf("warning %q should mention the unknown type", warnings[1])
	}
}
