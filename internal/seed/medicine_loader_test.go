package seed

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"medchart/m/domain"
	"medchart/m/internal/store"
)

const catalogCSV = `brand id,brand name,type,slug,dosage form,generic,strength,manufacturer,package
101,Napa,allopathic,napa,Tablet,Paracetamol,500 mg,Beximco,10x10
102,Seclo,allopathic,seclo,Capsule,Omeprazole,20 mg,Square,14x10
101,Napa Duplicate,allopathic,napa,Tablet,Paracetamol,500 mg,Beximco,10x10
103,,allopathic,blank,Tablet,Nothing,1 mg,Nobody,1
104,Short,row
105,Nogeneric,allopathic,ng,Tablet,,1 mg,Acme,1
`

func writeCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "medicine.csv")
	if err := os.WriteFile(path, []byte(catalogCSV), 0o644); err != nil {
		t.Fatalf("WriteFile err: %v", err)
	}
	return path
}

func TestLoadMedicinesSeedsEmptyStore(t *testing.T) {
	st := store.NewFileStore(filepath.Join(t.TempDir(), "medicines.json"), nil)

	if n := LoadMedicines(st, writeCSV(t), zap.NewNop()); n != 2 {
		t.Fatalf("expected 2 seeded rows, got %d", n)
	}

	items := st.Load()
	if len(items) != 2 {
		t.Fatalf("expected 2 stored records, got %d", len(items))
	}
	if !items[0].HasCode("101") || !items[1].HasCode("102") {
		t.Fatalf("unexpected codes %v %v", items[0].Keys(), items[1].Keys())
	}
	if name, _ := items[0].Get("brand_name"); name != "Napa" {
		t.Fatalf("expected first duplicate to win, got %v", name)
	}
	if generic, _ := items[1].Get(domain.FieldGenericName); generic != "Omeprazole" {
		t.Fatalf("unexpected generic_name %v", generic)
	}
}

func TestLoadMedicinesSkipsPopulatedStore(t *testing.T) {
	st := store.NewFileStore(filepath.Join(t.TempDir(), "medicines.json"), nil)
	existing := domain.NewMedicine()
	_ = existing.Set(domain.FieldCode, "A1")
	_ = existing.Set(domain.FieldGenericName, "Aspirin")
	if err := st.Save(domain.Collection{existing}); err != nil {
		t.Fatalf("Save err: %v", err)
	}

	if n := LoadMedicines(st, writeCSV(t), zap.NewNop()); n != 0 {
		t.Fatalf("expected no rows seeded, got %d", n)
	}
	if items := st.Load(); len(items) != 1 {
		t.Fatalf("store was modified, now %d records", len(items))
	}
}

func TestLoadMedicinesMissingFile(t *testing.T) {
	st := store.NewFileStore(filepath.Join(t.TempDir(), "medicines.json"), nil)
	if n := LoadMedicines(st, filepath.Join(t.TempDir(), "nope.csv"), zap.NewNop()); n != 0 {
		t.Fatalf("expected 0, got %d", n)
	}
}
