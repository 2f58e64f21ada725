// Package settlement derives paid/remaining/status figures for obligations
// from their payment ledgers. All functions are pure: no database access, no
// clock reads, nothing cached. Status is always recomputed from current state.
package settlement

import (
	"sort"
	"time"

	"github.com/elskito/TaxHacker/models"
)

// Status of an obligation relative to its ledger and the observation date.
type Status string

const (
	StatusPaid    Status = "paid"
	StatusPending Status = "pending"
	StatusOverdue Status = "overdue"
)

// TotalPaid sums the ledger. The sum is the canonical "paid so far" figure;
// no denormalized total is ever trusted over it.
func TotalPaid(payments []models.Payment) int64 {
	var total int64
	for _, p := range payments {
		total += p.Amount
	}
	return total
}

// Remaining is the obligation amount minus total paid. Negative when the
// obligation was edited below its already-paid total (overpaid); callers must
// not assume the result is non-negative.
func Remaining(o *models.Obligation, payments []models.Payment) int64 {
	return o.Amount - TotalPaid(payments)
}

// DeriveStatus classifies an obligation on the given observation date.
// Fully paid wins over overdue; due-date comparison is at day granularity.
func DeriveStatus(o *models.Obligation, payments []models.Payment, today time.Time) Status {
	if TotalPaid(payments) >= o.Amount {
		return StatusPaid
	}
	if dateOnly(o.DueDate).Before(dateOnly(today)) {
		return StatusOverdue
	}
	return StatusPending
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// MonthKey is the "YYYY-MM" bucket for an obligation's due date.
func MonthKey(o *models.Obligation) string {
	return o.DueDate.Format("2006-01")
}

// GroupByDueMonth buckets obligations by the calendar month of their due
// date. Every obligation lands in exactly one bucket; within a bucket
// obligations are sorted by due date ascending.
func GroupByDueMonth(obligations []models.Obligation) map[string][]models.Obligation {
	groups := make(map[string][]models.Obligation)
	for _, o := range obligations {
		k := MonthKey(&o)
		groups[k] = append(groups[k], o)
	}
	for _, g := range groups {
		sort.Slice(g, func(i, j int) bool { return g[i].DueDate.Before(g[j].DueDate) })
	}
	return groups
}

// SortedMonths returns the group keys in descending order (most recent first),
// matching the listing presentation.
func SortedMonths(groups map[string][]models.Obligation) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys
}

// Stats aggregates a user's obligations. Counts are mutually exclusive per
// DeriveStatus; TotalAmount sums obligation amounts, not payments.
type Stats struct {
	TotalCount   int   `json:"total_count"`
	PaidCount    int   `json:"paid_count"`
	PendingCount int   `json:"pending_count"`
	OverdueCount int   `json:"overdue_count"`
	TotalAmount  int64 `json:"total_amount"`
}

// Aggregate computes Stats for the given obligations. Each obligation must
// carry its payments preloaded.
func Aggregate(obligations []models.Obligation, today time.Time) Stats {
	var s Stats
	s.TotalCount = len(obligations)
	for i := range obligations {
		o := &obligations[i]
		s.TotalAmount += o.Amount
		switch DeriveStatus(o, o.Payments, today) {
		case StatusPaid:
			s.PaidCount++
		case StatusOverdue:
			s.OverdueCount++
		default:
			s.PendingCount++
		}
	}
	return s
}
