package dbtest

import (
	"os"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib" // golang postgres driver
	"github.com/jmoiron/sqlx"
)

// Connect opens the database named by TEST_PG_DSN or skips the test when it
// is not set.
func Connect(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := os.Getenv("TEST_PG_DSN")
	if dsn == "" {
		t.Skip("TEST_PG_DSN is not set")
	}

	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		t.Fatalf("sqlx.Connect: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	return db
}

// Truncate empties tables before and after the test.
func Truncate(t *testing.T, db *sqlx.DB, tables ...string) {
	t.Helper()

	truncate := func() {
		for _, table := range tables {
			if _, err := db.Exec("TRUNCATE TABLE " + table); err != nil {
				t.Fatalf("truncate %s: %v", table, err)
			}
		}
	}

	truncate()
	t.Cleanup(truncate)
}
