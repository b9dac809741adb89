package database

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFilePath(t *testing.T) {
	cases := []struct {
		dsn  string
		want string
	}{
		{":memory:", ""},
		{"file::memory:?cache=shared", ""},
		{"data/medicines.db", "data/medicines.db"},
		{"file:data/medicines.db?_pragma=busy_timeout(5000)", "data/medicines.db"},
	}
	for _, tc := range cases {
		if got := filePath(tc.dsn); got != tc.want {
			t.Errorf("filePath(%q) = %q, want %q", tc.dsn, got, tc.want)
		}
	}
}

func TestConnectCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "medicines.db")

	db, err := Connect(path)
	if err != nil {
		t.Fatalf("Connect err: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Fatalf("expected database directory to exist: %v", err)
	}
}
