package store

import (
	"bytes"
	"encoding/json"

	"medchart/m/domain"
)

// Store loads and persists the whole medicine collection as one snapshot.
// Implementations do not guard against concurrent writers.
type Store interface {
	// Load returns the stored collection. Missing or unreadable data yields
	// an empty collection, never an error.
	Load() domain.Collection
	// Save overwrites the stored snapshot with items.
	Save(items domain.Collection) error
	// Location describes where the snapshot lives, for logs.
	Location() string
}

func encodeSnapshot(items domain.Collection) ([]byte, error) {
	if items == nil {
		items = domain.Collection{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(items); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func decodeSnapshot(data []byte) (domain.Collection, error) {
	var items domain.Collection
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = domain.Collection{}
	}
	return items, nil
}
