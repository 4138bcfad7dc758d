package pipeline

import "nfc-locator/pkg/geometry"

// Record is the located NFC area of one device model.
type Record struct {
	Manufacturer  string            `json:"manufacturer"`
	MarketingName string            `json:"marketingName"`
	ModelNames    []string          `json:"modelNames"`
	NFCPos        geometry.NormRect `json:"nfcPos"`
}
