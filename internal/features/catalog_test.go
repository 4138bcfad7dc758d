package features

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNFCFeatureNumber(t *testing.T) {
	tests := []struct {
		name string
		list []string
		want int
	}{
		{"third", []string{"Camera", "Flash", "NFC antenna", "USB-C"}, 3},
		{"case insensitive", []string{"nfc area"}, 1},
		{"first match wins", []string{"Speaker", "NFC", "NFC coil"}, 2},
		{"absent", []string{"Camera", "Microphone"}, NoFeature},
		{"empty", nil, NoFeature},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NFCFeatureNumber(tt.list); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestModelName(t *testing.T) {
	tests := map[string]string{
		"Google\u00a0Pixel\u00a08": "Pixel 8",
		"Pixel 7a":                 "Pixel 7a",
		"  Pixel Fold ":            "Pixel Fold",
		"Nexus 5X":                 "Nexus 5X",
	}
	for in, want := range tests {
		if got := ModelName(in); got != want {
			t.Errorf("ModelName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCatalog(t *testing.T) {
	c := New([]Entry{
		{MarketingName: "Google Pixel\u00a08", Features: []string{"Camera", "NFC"}},
		{MarketingName: "Pixel 7a", Features: []string{"NFC", "Camera"}},
		{MarketingName: "Pixel Tablet", Features: []string{"Speaker"}},
	})

	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
	if got := c.FeatureNumber("Pixel 8"); got != 2 {
		t.Errorf("Pixel 8 = %d, want 2", got)
	}
	if got := c.FeatureNumber("Pixel 7a"); got != 1 {
		t.Errorf("Pixel 7a = %d, want 1", got)
	}
	if got := c.FeatureNumber("Pixel Tablet"); got != NoFeature {
		t.Errorf("Pixel Tablet = %d, want NoFeature", got)
	}
	if got := c.FeatureNumber("Pixel 9"); got != NoFeature {
		t.Errorf("unknown = %d, want NoFeature", got)
	}
	if m := c.Missing(); len(m) != 1 || m[0] != "Pixel Tablet" {
		t.Errorf("Missing = %v", m)
	}

	var nilCatalog *Catalog
	if nilCatalog.FeatureNumber("Pixel 8") != NoFeature || nilCatalog.Len() != 0 {
		t.Error("nil catalog should resolve nothing")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "features.json")
	data := `[{"marketingName": "Pixel 8", "features": ["Camera", "Flash", "NFC"]}]`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := c.FeatureNumber("Pixel 8"); got != 3 {
		t.Errorf("got %d, want 3", got)
	}

	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte("{"), 0644)
	if _, err := Load(bad); err == nil {
		t.Error("expected error for bad JSON")
	}
}
