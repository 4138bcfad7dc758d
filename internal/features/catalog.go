// Package features reads the per-device feature lists that number the
// callouts in product diagrams, and finds the NFC entry in them.
package features

import (
	"fmt"
	"os"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// NoFeature is returned when a list has no NFC entry.
const NoFeature = -1

// Entry is the feature list of one device.
type Entry struct {
	MarketingName string   `json:"marketingName"`
	Features      []string `json:"features"`
}

// Catalog maps marketing names to their NFC feature number.
type Catalog struct {
	numbers map[string]int
	missing []string
}

// Load reads a JSON array of entries from path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read feature list: %w", err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse feature list %s: %w", path, err)
	}
	return New(entries), nil
}

// New builds a catalog. Entries without an NFC feature are remembered in
// Missing and resolve to NoFeature.
func New(entries []Entry) *Catalog {
	c := &Catalog{numbers: make(map[string]int, len(entries))}
	for _, e := range entries {
		name := ModelName(e.MarketingName)
		n := NFCFeatureNumber(e.Features)
		if n == NoFeature {
			c.missing = append(c.missing, name)
			continue
		}
		c.numbers[name] = n
	}
	return c
}

// FeatureNumber returns the NFC feature number for a marketing name, or
// NoFeature.
func (c *Catalog) FeatureNumber(marketingName string) int {
	if c == nil {
		return NoFeature
	}
	if n, ok := c.numbers[marketingName]; ok {
		return n
	}
	return NoFeature
}

// Missing returns the marketing names whose list has no NFC entry.
func (c *Catalog) Missing() []string {
	if c == nil {
		return nil
	}
	return c.missing
}

// Len returns the number of devices with an NFC feature number.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.numbers)
}

// NFCFeatureNumber returns the 1-based index of the first feature that
// mentions NFC, or NoFeature.
func NFCFeatureNumber(list []string) int {
	for i, f := range list {
		if strings.Contains(strings.ToUpper(f), "NFC") {
			return i + 1
		}
	}
	return NoFeature
}

// ModelName cleans a device heading from a support page: non-breaking
// spaces become spaces and anything before "Pixel" is dropped.
func ModelName(heading string) string {
	name := strings.ReplaceAll(heading, "\u00a0", " ")
	if i := strings.Index(name, "Pixel"); i >= 0 {
		name = name[i:]
	}
	return strings.TrimSpace(name)
}
