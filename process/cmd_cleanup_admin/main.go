package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
)

// Removes the seeded admin user's obligations and payments so a demo database
// can be reset without touching real users. Attachment files stay on disk and
// their rows stay in files; orphan cleanup is the storage maintenance tool's job.
func main() {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN not set")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	var adminID sql.NullString
	if err := db.QueryRow(`SELECT id FROM users WHERE username='admin' LIMIT 1`).Scan(&adminID); err != nil {
		if err == sql.ErrNoRows {
			fmt.Println("admin user not found; nothing to cleanup")
			return
		}
		log.Fatalf("find admin: %v", err)
	}
	res1, err := db.Exec(`DELETE FROM payments WHERE obligation_id IN (SELECT id FROM obligations WHERE user_id=$1)`, adminID.String)
	if err != nil {
		log.Fatalf("delete admin payments: %v", err)
	}
	n1, _ := res1.RowsAffected()
	res2, err := db.Exec(`DELETE FROM obligations WHERE user_id=$1`, adminID.String)
	if err != nil {
		log.Fatalf("delete admin obligations: %v", err)
	}
	n2, _ := res2.RowsAffected()
	fmt.Printf("cleanup done: payments deleted=%d, obligations deleted=%d\n", n1, n2)
}
