package report

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/elskito/TaxHacker/models"
	"github.com/elskito/TaxHacker/pkg/money"
	"github.com/elskito/TaxHacker/pkg/settlement"
)

func mustDBFromEnv() *gorm.DB {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN not set in env")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	return gdb
}

// RunReport prints a settlement report for username over one due-month
// (YYYY-MM): each obligation due that month with its paid/remaining/status,
// derived fresh from the payment ledger.
func RunReport(username, month string, list bool) {
	gdb := mustDBFromEnv()

	var user models.User
	if err := gdb.Where("username = ?", username).First(&user).Error; err != nil {
		log.Fatalf("user not found: %v", err)
	}

	t, err := time.Parse("2006-01", month)
	if err != nil {
		log.Fatalf("invalid month format, expected YYYY-MM: %v", err)
	}
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	var obs []models.Obligation
	if err := gdb.Preload("Payments").
		Where("user_id = ? AND due_date >= ? AND due_date < ?", user.ID, start, end).
		Order("due_date asc").Find(&obs).Error; err != nil {
		log.Fatalf("query failed: %v", err)
	}

	stats := settlement.Aggregate(obs, time.Now())
	fmt.Printf("Report for user=%s due-month=%s (UTC):\n", user.Username, month)
	fmt.Printf("  obligations=%d paid=%d overdue=%d pending=%d total_owed=%s\n",
		stats.TotalCount, stats.PaidCount, stats.OverdueCount, stats.PendingCount, money.Format(stats.TotalAmount))

	if list {
		now := time.Now()
		for i := range obs {
			o := &obs[i]
			fmt.Printf("%s|%s|%s %s|paid=%s|remaining=%s|%s\n",
				o.ID, o.Name, money.Format(o.Amount), o.CurrencyCode,
				money.Format(settlement.TotalPaid(o.Payments)),
				money.Format(settlement.Remaining(o, o.Payments)),
				settlement.DeriveStatus(o, o.Payments, now))
		}
	}
}
