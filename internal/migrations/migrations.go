package migrations

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Run creates the schema backing the SQLite snapshot store. It is safe to
// call repeatedly.
func Run(db *sqlx.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS medicine_snapshot (
            id INTEGER PRIMARY KEY CHECK (id = 1),
            body TEXT NOT NULL
        );`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
