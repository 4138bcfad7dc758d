// Package devicelist reads the Google Play supported-devices catalog and maps
// marketing names to model identifiers.
package devicelist

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Catalog column headers.
const (
	ColBranding      = "Retail Branding"
	ColMarketingName = "Marketing Name"
	ColDevice        = "Device"
	ColModel         = "Model"
)

// Device is one catalog row.
type Device struct {
	Branding      string
	MarketingName string
	Device        string
	Model         string
}

// List is the parsed catalog.
type List struct {
	Devices []Device
}

// Load reads the catalog at path. The file is UTF-16 with a byte order mark
// as published; UTF-8 files are accepted too.
func Load(path string) (*List, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open device list: %w", err)
	}
	defer f.Close()

	l, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

// Parse reads a catalog from r.
func Parse(r io.Reader) (*List, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read device list header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	for _, want := range []string{ColBranding, ColMarketingName, ColModel} {
		if _, ok := cols[want]; !ok {
			return nil, fmt.Errorf("device list has no %q column", want)
		}
	}

	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	l := &List{}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read device list: %w", err)
		}
		l.Devices = append(l.Devices, Device{
			Branding:      field(row, ColBranding),
			MarketingName: field(row, ColMarketingName),
			Device:        field(row, ColDevice),
			Model:         field(row, ColModel),
		})
	}
	return l, nil
}

// Models returns the distinct model identifiers of the devices that match
// name under m, in catalog order.
func (l *List) Models(m Match, name string) []string {
	if l == nil {
		return nil
	}
	pred := m.predicate(name)
	if pred == nil {
		return nil
	}

	var models []string
	seen := make(map[string]struct{})
	for _, d := range l.Devices {
		if !pred(d) || d.Model == "" {
			continue
		}
		if _, dup := seen[d.Model]; dup {
			continue
		}
		seen[d.Model] = struct{}{}
		models = append(models, d.Model)
	}
	return models
}
