package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"nfc-locator/internal/pipeline"
	"nfc-locator/pkg/geometry"
)

func record(name string, x0 float64) pipeline.Record {
	return pipeline.Record{
		Manufacturer:  "Samsung",
		MarketingName: name,
		ModelNames:    []string{"SM-" + name},
		NFCPos:        geometry.NormRect{X0: x0, Y0: 0.2, X1: 0.8, Y1: 0.4},
	}
}

func TestOpen_Missing(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "db", "nfc_positions.json"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
}

func TestAppend_SkipsExisting(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "nfc_positions.json"))
	if err != nil {
		t.Fatal(err)
	}

	if n := s.Append(record("Galaxy S23", 0.1)); n != 1 {
		t.Fatalf("first Append added %d, want 1", n)
	}

	n := s.Append(
		record("Galaxy S23", 0.9),
		record("Galaxy A54", 0.1),
		record("Galaxy A54", 0.5),
	)
	if n != 1 {
		t.Errorf("second Append added %d, want 1", n)
	}

	recs := s.Records()
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].NFCPos.X0 != 0.1 {
		t.Errorf("existing record overwritten: %+v", recs[0])
	}
	if recs[1].MarketingName != "Galaxy A54" || recs[1].NFCPos.X0 != 0.1 {
		t.Errorf("first duplicate in batch should win: %+v", recs[1])
	}
	if !s.Exists("Galaxy A54") || s.Exists("Pixel 8") {
		t.Error("Exists mismatch")
	}
}

func TestSaveAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "nfc_positions.json")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	s.Append(record("Galaxy S23", 0.1), pipeline.Record{Manufacturer: "Google", MarketingName: "Pixel 8"})
	if err := s.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"manufacturer"`, `"marketingName"`, `"modelNames": []`, `"nfcPos"`, `"x0"`, `"y1"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("saved JSON missing %s:\n%s", key, data)
		}
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if reopened.Len() != 2 || !reopened.Exists("Pixel 8") {
		t.Errorf("reopened store = %+v", reopened.Records())
	}
	if got := reopened.Records()[0]; got.ModelNames[0] != "SM-Galaxy S23" || got.NFCPos.Y1 != 0.4 {
		t.Errorf("round trip lost data: %+v", got)
	}
}

func TestSave_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nfc_positions.json")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("empty store saved as %q", data)
	}
}

func TestOpen_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nfc_positions.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err == nil {
		t.Error("expected parse error")
	}
}
