package store

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"medchart/m/domain"
	"medchart/m/internal/database"
)

func sampleCollection(t *testing.T) domain.Collection {
	t.Helper()
	var items domain.Collection
	raw := `[{"code":"A1","generic_name":"Aspirin","strength":"500mg"},{"code":"B2","generic_name":"Brufen","tags":["nsaid"]}]`
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		t.Fatalf("Unmarshal err: %v", err)
	}
	return items
}

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := database.Connect(filepath.Join(t.TempDir(), "db", "medicines.db"))
	if err != nil {
		t.Fatalf("Connect err: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSQLiteStore(db, "test.db", nil)
}

func TestFileStoreLoadMissingFileIsEmpty(t *testing.T) {
	st := NewFileStore(filepath.Join(t.TempDir(), "missing.json"), nil)

	items := st.Load()
	if items == nil || len(items) != 0 {
		t.Fatalf("expected empty collection, got %v", items)
	}
}

func TestFileStoreLoadCorruptFileIsEmpty(t *testing.T) {
	for _, body := range []string{`{not json`, `{"code":"A1"}`} {
		path := filepath.Join(t.TempDir(), "medicines.json")
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("WriteFile err: %v", err)
		}
		if items := NewFileStore(path, nil).Load(); len(items) != 0 {
			t.Fatalf("%s: expected empty collection, got %d items", body, len(items))
		}
	}
}

func TestFileStoreKeepsNonObjectEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "medicines.json")
	if err := os.WriteFile(path, []byte(`[{"code":"A1","generic_name":"Aspirin"},5,"x"]`), 0o644); err != nil {
		t.Fatalf("WriteFile err: %v", err)
	}
	st := NewFileStore(path, nil)

	items := st.Load()
	if len(items) != 3 || !items[0].HasCode("A1") {
		t.Fatalf("expected 3 entries led by A1, got %d", len(items))
	}
	if err := st.Save(items); err != nil {
		t.Fatalf("Save err: %v", err)
	}
	want := "[\n  {\n    \"code\": \"A1\",\n    \"generic_name\": \"Aspirin\"\n  },\n  5,\n  \"x\"\n]"
	if data, _ := os.ReadFile(path); string(data) != want {
		t.Fatalf("unexpected file contents:\n%s", data)
	}
}

func TestFileStoreSaveCreatesDirectoryAndPrettyPrints(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "nested", "medicines.json")
	st := NewFileStore(path, nil)

	if err := st.Save(sampleCollection(t)[:1]); err != nil {
		t.Fatalf("Save err: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile err: %v", err)
	}
	want := "[\n  {\n    \"code\": \"A1\",\n    \"generic_name\": \"Aspirin\",\n    \"strength\": \"500mg\"\n  }\n]"
	if string(data) != want {
		t.Fatalf("unexpected file contents:\n%s", data)
	}
}

func TestFileStoreSaveEmptyWritesArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "medicines.json")
	if err := NewFileStore(path, nil).Save(nil); err != nil {
		t.Fatalf("Save err: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "[]" {
		t.Fatalf("expected [], got %q", data)
	}
}

func TestFileStoreRoundTripIsFixedPoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "medicines.json")
	st := NewFileStore(path, nil)
	if err := st.Save(sampleCollection(t)); err != nil {
		t.Fatalf("Save err: %v", err)
	}
	first, _ := os.ReadFile(path)

	if err := st.Save(st.Load()); err != nil {
		t.Fatalf("Save err: %v", err)
	}
	second, _ := os.ReadFile(path)

	if !bytes.Equal(first, second) {
		t.Fatalf("save(load()) changed the file:\n%s\n---\n%s", first, second)
	}
}

func TestFileStoreSaveFailurePropagates(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile err: %v", err)
	}
	st := NewFileStore(filepath.Join(blocker, "medicines.json"), nil)

	if err := st.Save(sampleCollection(t)); err == nil {
		t.Fatal("expected error when data directory cannot be created")
	}
}

func TestSQLiteStoreLoadEmpty(t *testing.T) {
	st := newSQLiteStore(t)
	if items := st.Load(); items == nil || len(items) != 0 {
		t.Fatalf("expected empty collection, got %v", items)
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	st := newSQLiteStore(t)
	want := sampleCollection(t)

	if err := st.Save(want); err != nil {
		t.Fatalf("Save err: %v", err)
	}
	if err := st.Save(st.Load()); err != nil {
		t.Fatalf("Save err: %v", err)
	}

	got := st.Load()
	wantJSON, _ := json.Marshal(want)
	gotJSON, _ := json.Marshal(got)
	if !bytes.Equal(wantJSON, gotJSON) {
		t.Fatalf("round trip mismatch:\n got %s\nwant %s", gotJSON, wantJSON)
	}
}

func TestSQLiteStoreOverwritesSnapshot(t *testing.T) {
	st := newSQLiteStore(t)
	if err := st.Save(sampleCollection(t)); err != nil {
		t.Fatalf("Save err: %v", err)
	}
	if err := st.Save(sampleCollection(t)[1:]); err != nil {
		t.Fatalf("Save err: %v", err)
	}

	items := st.Load()
	if len(items) != 1 || !items[0].HasCode("B2") {
		t.Fatalf("expected only B2 after overwrite, got %d items", len(items))
	}
}
