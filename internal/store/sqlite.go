package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"medchart/m/domain"
	"medchart/m/internal/migrations"
)

// SQLiteStore keeps the same pretty-printed snapshot as FileStore, stored
// as the single row of the medicine_snapshot table.
type SQLiteStore struct {
	db       *sqlx.DB
	location string
	log      *zap.Logger
}

// NewSQLiteStore returns a store on db. location is only used in logs.
func NewSQLiteStore(db *sqlx.DB, location string, logger *zap.Logger) *SQLiteStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLiteStore{db: db, location: location, log: logger.Named("store")}
}

// Location returns the database DSN.
func (s *SQLiteStore) Location() string {
	return s.location
}

// Load reads the snapshot row. A missing table, row or corrupt body reads as empty.
func (s *SQLiteStore) Load() domain.Collection {
	var body string
	err := s.db.Get(&body, `SELECT body FROM medicine_snapshot WHERE id = 1`)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.log.Warn("unable to read medicine snapshot", zap.String("dsn", s.location), zap.Error(err))
		}
		return domain.Collection{}
	}
	items, err := decodeSnapshot([]byte(body))
	if err != nil {
		s.log.Warn("unable to parse medicine snapshot", zap.String("dsn", s.location), zap.Error(err))
		return domain.Collection{}
	}
	return items
}

// Save ensures the schema exists and replaces the snapshot row.
func (s *SQLiteStore) Save(items domain.Collection) error {
	if err := migrations.Run(s.db); err != nil {
		s.log.Error("unable to prepare medicine snapshot table", zap.String("dsn", s.location), zap.Error(err))
		return err
	}
	data, err := encodeSnapshot(items)
	if err != nil {
		return fmt.Errorf("encode medicines: %w", err)
	}
	_, err = s.db.Exec(`INSERT INTO medicine_snapshot (id, body) VALUES (1, ?)
        ON CONFLICT(id) DO UPDATE SET body = excluded.body`, string(data))
	if err != nil {
		s.log.Error("unable to write medicine snapshot", zap.String("dsn", s.location), zap.Error(err))
		return fmt.Errorf("write medicine snapshot: %w", err)
	}
	return nil
}
