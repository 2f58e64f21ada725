package settlement

import (
	"testing"
	"time"

	"github.com/elskito/TaxHacker/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func payments(amounts ...int64) []models.Payment {
	ps := make([]models.Payment, 0, len(amounts))
	for _, a := range amounts {
		ps = append(ps, models.Payment{Amount: a})
	}
	return ps
}

func TestTotalPaidIsLedgerSum(t *testing.T) {
	if got := TotalPaid(nil); got != 0 {
		t.Fatalf("empty ledger: got %d want 0", got)
	}
	if got := TotalPaid(payments(2500, 100, 1)); got != 2601 {
		t.Fatalf("got %d want 2601", got)
	}
}

func TestRemainingMayGoNegative(t *testing.T) {
	o := &models.Obligation{Amount: 1000}
	if got := Remaining(o, payments(400)); got != 600 {
		t.Fatalf("got %d want 600", got)
	}
	// Obligation edited down below already-paid total: overpaid, not an error.
	o.Amount = 300
	if got := Remaining(o, payments(400)); got != -100 {
		t.Fatalf("got %d want -100", got)
	}
}

func TestDeriveStatus(t *testing.T) {
	today := day(2026, time.March, 15)
	o := &models.Obligation{Amount: 10000, DueDate: day(2026, time.March, 14)}

	if s := DeriveStatus(o, nil, today); s != StatusOverdue {
		t.Fatalf("due yesterday, unpaid: got %s want overdue", s)
	}
	if s := DeriveStatus(o, payments(10000), today); s != StatusPaid {
		t.Fatalf("fully paid: got %s want paid", s)
	}
	// Paid wins over overdue even when overpaid.
	if s := DeriveStatus(o, payments(10000, 1), today); s != StatusPaid {
		t.Fatalf("overpaid: got %s want paid", s)
	}

	o.DueDate = day(2026, time.March, 15)
	if s := DeriveStatus(o, payments(9999), today); s != StatusPending {
		t.Fatalf("due today, partially paid: got %s want pending", s)
	}
	o.DueDate = day(2026, time.April, 1)
	if s := DeriveStatus(o, nil, today); s != StatusPending {
		t.Fatalf("due next month: got %s want pending", s)
	}
}

func TestStatusIsPureNotSticky(t *testing.T) {
	today := day(2026, time.March, 15)
	o := &models.Obligation{Amount: 5000, DueDate: day(2026, time.March, 1)}
	ps := payments(5000)
	if s := DeriveStatus(o, ps, today); s != StatusPaid {
		t.Fatalf("got %s want paid", s)
	}
	// Deleting the payment drops the obligation straight back to overdue:
	// status is a function of current state, never of history.
	if s := DeriveStatus(o, nil, today); s != StatusOverdue {
		t.Fatalf("got %s want overdue", s)
	}
}

func TestDueTimeOfDayIrrelevant(t *testing.T) {
	today := time.Date(2026, time.March, 15, 8, 0, 0, 0, time.UTC)
	o := &models.Obligation{Amount: 100, DueDate: time.Date(2026, time.March, 15, 23, 59, 0, 0, time.UTC)}
	if s := DeriveStatus(o, nil, today); s != StatusPending {
		t.Fatalf("due later today: got %s want pending", s)
	}
}

func TestGroupByDueMonth(t *testing.T) {
	obs := []models.Obligation{
		{ID: "a", DueDate: day(2026, time.March, 20)},
		{ID: "b", DueDate: day(2026, time.March, 5)},
		{ID: "c", DueDate: day(2026, time.April, 1)},
	}
	groups := GroupByDueMonth(obs)
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	march := groups["2026-03"]
	if len(march) != 2 || march[0].ID != "b" || march[1].ID != "a" {
		t.Fatalf("march group wrong: %+v", march)
	}
	total := 0
	for _, g := range groups {
		total += len(g)
	}
	if total != len(obs) {
		t.Fatalf("every obligation must appear in exactly one group; got %d of %d", total, len(obs))
	}
	months := SortedMonths(groups)
	if len(months) != 2 || months[0] != "2026-04" || months[1] != "2026-03" {
		t.Fatalf("months order wrong: %v", months)
	}
}

func TestAggregate(t *testing.T) {
	today := day(2026, time.March, 15)
	obs := []models.Obligation{
		{Amount: 1000, DueDate: day(2026, time.March, 1), Payments: payments(1000)},
		{Amount: 2000, DueDate: day(2026, time.March, 1)},
		{Amount: 3000, DueDate: day(2026, time.April, 1)},
	}
	s := Aggregate(obs, today)
	if s.TotalCount != 3 || s.PaidCount != 1 || s.OverdueCount != 1 || s.PendingCount != 1 {
		t.Fatalf("counts wrong: %+v", s)
	}
	if s.TotalAmount != 6000 {
		t.Fatalf("total amount %d, want 6000", s.TotalAmount)
	}
}
