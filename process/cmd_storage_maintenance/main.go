package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/elskito/TaxHacker/models"
	"github.com/elskito/TaxHacker/pkg/storage"
)

// Storage maintenance: recompute every user's storage_used from disk and
// report attachment records no payment references anymore. Orphans are
// expected (deleting a payment or obligation never deletes its proof file);
// this tool is the separate concern that finds them.
func main() {
	baseDir := flag.String("base", "uploads", "upload base directory")
	fix := flag.Bool("fix", false, "write recomputed storage_used values (default: report only)")
	flag.Parse()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN not set")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("open db: %v", err)
	}

	var users []models.User
	if err := gdb.Find(&users).Error; err != nil {
		log.Fatalf("list users: %v", err)
	}
	for _, u := range users {
		size, err := storage.DirSize(storage.UserDir(*baseDir, u.ID))
		if err != nil {
			log.Printf("warning: dir size for user %s: %v", u.Username, err)
			continue
		}
		if size != u.StorageUsed {
			fmt.Printf("user %s: storage_used=%d actual=%d\n", u.Username, u.StorageUsed, size)
			if *fix {
				if err := gdb.Model(&models.User{}).Where("id = ?", u.ID).Update("storage_used", size).Error; err != nil {
					log.Printf("warning: update storage_used for %s: %v", u.Username, err)
				}
			}
		}
	}

	var orphans []models.File
	if err := gdb.Where("id NOT IN (SELECT proof_of_payment_file FROM payments WHERE proof_of_payment_file IS NOT NULL)").
		Find(&orphans).Error; err != nil {
		log.Fatalf("find orphans: %v", err)
	}
	for _, f := range orphans {
		fmt.Printf("orphaned attachment: id=%s user=%s path=%s size=%d\n", f.ID, f.UserID, f.Path, f.Size)
	}
	fmt.Printf("done: users=%d orphaned_attachments=%d (files left untouched)\n", len(users), len(orphans))
}
