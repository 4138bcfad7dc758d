// Package chip locates the NFC antenna region in a product photograph.
package chip

import (
	"context"
	"errors"
	"fmt"

	"nfc-locator/pkg/geometry"

	"gocv.io/x/gocv"
)

var (
	// ErrNotFound is returned when no candidate region qualifies.
	ErrNotFound = errors.New("nfc chip not found")
	// ErrNoFeature is returned by the label strategy when the image has no
	// NFC feature number to look for.
	ErrNoFeature = errors.New("no nfc feature number")
)

// Context carries per-image inputs that some strategies need.
type Context struct {
	// FeatureNumber is the 1-based index of the NFC entry in the product's
	// feature list, or -1 when unknown.
	FeatureNumber int
}

// Locator finds the chip region in a BGR image.
type Locator interface {
	Locate(ctx context.Context, img gocv.Mat, c Context) (geometry.Rect, error)
}

// LabelFinder locates a printed number in a BGR image.
type LabelFinder interface {
	Locate(ctx context.Context, img gocv.Mat, target int) (geometry.Rect, error)
}

// New builds the locator for p.Strategy. finder is only used by the label
// strategy and may be nil otherwise.
func New(p Params, finder LabelFinder) (Locator, error) {
	switch p.Strategy {
	case StrategyColor:
		switch p.Selection {
		case SelectLargest, SelectPairs:
			return &Color{Params: p}, nil
		default:
			return nil, fmt.Errorf("unknown color selection %q", p.Selection)
		}
	case StrategyLabel:
		if finder == nil {
			return nil, fmt.Errorf("label strategy needs a label finder")
		}
		return &Label{Params: p, Finder: finder}, nil
	default:
		return nil, fmt.Errorf("unknown chip strategy %q", p.Strategy)
	}
}
