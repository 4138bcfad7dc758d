// Package app wires configuration, vendor profiles, lookup tables and the
// record store into batch runs over the photo directories.
package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"nfc-locator/internal/chip"
	"nfc-locator/internal/config"
	"nfc-locator/internal/devicelist"
	"nfc-locator/internal/features"
	nfcimage "nfc-locator/internal/image"
	"nfc-locator/internal/logging"
	"nfc-locator/internal/ocr"
	"nfc-locator/internal/pipeline"
	"nfc-locator/internal/store"
	"nfc-locator/internal/vendor"

	"github.com/sirupsen/logrus"
)

// AllVendors selects every configured profile.
const AllVendors = "all"

// ErrUnknownVendor is returned for a vendor name without a profile.
var ErrUnknownVendor = errors.New("unknown vendor")

// EventType identifies batch progress events.
type EventType int

const (
	EventVendorStarted EventType = iota
	EventVendorFinished
	EventStoreSaved
	EventPhotosRemoved
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// VendorResult summarizes one vendor run. It is the data of
// EventVendorStarted and EventVendorFinished.
type VendorResult struct {
	Vendor string
	// Photos is every supported file found in the vendor directory.
	Photos []string
	// Known counts photos whose marketing name is already stored.
	Known int
	// Duplicates counts photos that share a marketing name with an earlier one.
	Duplicates int
	// NoFeature counts photos skipped because their NFC feature number is unknown.
	NoFeature int
	Processed int
	Located   int
	Added     int
	Failures  []error
}

// App holds the resources shared by the vendor runs of one invocation.
type App struct {
	mu sync.RWMutex

	Config   config.Config
	Profiles map[string]vendor.Profile
	Store    *store.Store
	Devices  *devicelist.List
	Catalog  *features.Catalog
	Log      *logrus.Logger

	finder       chip.LabelFinder
	newFinder    func() (chip.LabelFinder, error)
	newProcessor func(vendor.Profile, chip.LabelFinder, logrus.FieldLogger) (*pipeline.Processor, error)

	listeners map[EventType][]EventListener
}

// New loads everything named by cfg. A missing device list or feature list
// only produces a warning: records then carry no model names, and vendors
// that need a feature number skip their photos.
func New(cfg config.Config, log *logrus.Logger) (*App, error) {
	if log == nil {
		log = logging.Logger()
	}

	profiles, err := vendor.Load(cfg.VendorConfig)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:       cfg,
		Profiles:     profiles,
		Store:        st,
		Log:          log,
		newProcessor: pipeline.NewProcessor,
		listeners:    make(map[EventType][]EventListener),
	}
	a.newFinder = func() (chip.LabelFinder, error) {
		eng, err := ocr.Shared(cfg.TessdataPrefix)
		if err != nil {
			return nil, err
		}
		return ocr.NewLabelFinder(eng), nil
	}

	if a.Devices, err = devicelist.Load(cfg.DeviceList); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		log.WithField("path", cfg.DeviceList).Warn("device list not found, records will have no model names")
	}

	if a.Catalog, err = features.Load(cfg.FeatureList); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		log.WithField("path", cfg.FeatureList).Warn("feature list not found")
	}
	for _, name := range a.Catalog.Missing() {
		log.WithField(logging.KeyImage, name).Warn("feature list has no NFC entry")
	}

	return a, nil
}

// On registers an event listener for the specified event type.
func (a *App) On(event EventType, listener EventListener) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners[event] = append(a.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (a *App) Emit(event EventType, data interface{}) {
	a.mu.RLock()
	listeners := a.listeners[event]
	a.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// Close releases the OCR engine if a run created it.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.finder == nil {
		return nil
	}
	a.finder = nil
	return ocr.CloseShared()
}

// Vendors resolves a --vendor value to profile names.
func (a *App) Vendors(selection string) ([]string, error) {
	if selection == "" || selection == AllVendors {
		return vendor.Names(a.Profiles), nil
	}
	if _, ok := a.Profiles[selection]; !ok {
		return nil, fmt.Errorf("%w: %s (have %v)", ErrUnknownVendor, selection, vendor.Names(a.Profiles))
	}
	return []string{selection}, nil
}

func (a *App) labelFinder() (chip.LabelFinder, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.finder != nil {
		return a.finder, nil
	}
	f, err := a.newFinder()
	if err != nil {
		return nil, fmt.Errorf("failed to start OCR engine: %w", err)
	}
	a.finder = f
	return f, nil
}

// Run processes the selected vendors in order and saves the store after
// each one. With clean set, a vendor's photos are deleted once its records
// are saved. A vendor whose directory cannot be read is logged and skipped.
func (a *App) Run(ctx context.Context, selection string, clean bool) ([]VendorResult, error) {
	names, err := a.Vendors(selection)
	if err != nil {
		return nil, err
	}

	var results []VendorResult
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		res, err := a.RunVendor(ctx, name)
		if err != nil {
			a.Log.WithFields(logging.Fields{logging.KeyVendor: name, logging.KeyError: err.Error()}).Error("vendor skipped")
			continue
		}
		results = append(results, res)

		if err := a.Store.Save(); err != nil {
			return results, err
		}
		a.Emit(EventStoreSaved, a.Store.Path())

		if clean && len(res.Photos) > 0 {
			if err := nfcimage.Remove(res.Photos); err != nil {
				return results, err
			}
			a.Emit(EventPhotosRemoved, res.Photos)
		}
	}
	return results, nil
}

// RunVendor analyzes the photos in <ImageDir>/<name> and appends the new
// records to the store without saving it.
func (a *App) RunVendor(ctx context.Context, name string) (VendorResult, error) {
	p, ok := a.Profiles[name]
	if !ok {
		return VendorResult{}, fmt.Errorf("%w: %s", ErrUnknownVendor, name)
	}

	paths, err := nfcimage.List(filepath.Join(a.Config.ImageDir, name))
	if err != nil {
		return VendorResult{}, err
	}
	res := VendorResult{Vendor: name, Photos: paths}
	inputs := a.inputs(p, paths, &res)
	res.Processed = len(inputs)
	a.Emit(EventVendorStarted, res)

	if len(inputs) > 0 {
		var finder chip.LabelFinder
		if p.Chip.Strategy == chip.StrategyLabel {
			if finder, err = a.labelFinder(); err != nil {
				return res, err
			}
		}
		proc, err := a.newProcessor(p, finder, a.Log)
		if err != nil {
			return res, err
		}
		proc.Workers = a.Config.Workers
		proc.Timeout = a.Config.ImageTimeout

		batch := proc.Run(ctx, inputs)
		res.Located = len(batch.Records)
		res.Failures = batch.Failures
		res.Added = a.Store.Append(batch.Records...)
	}

	a.Emit(EventVendorFinished, res)
	return res, nil
}

func (a *App) inputs(p vendor.Profile, paths []string, res *VendorResult) []pipeline.Input {
	var inputs []pipeline.Input
	seen := make(map[string]bool)
	for _, path := range paths {
		name := nfcimage.MarketingName(path)
		switch {
		case seen[name]:
			res.Duplicates++
			continue
		case a.Store.Exists(name):
			res.Known++
			continue
		}
		seen[name] = true

		feature := features.NoFeature
		if p.NeedsFeature {
			if feature = a.Catalog.FeatureNumber(name); feature == features.NoFeature {
				res.NoFeature++
				a.Log.WithFields(logging.Fields{logging.KeyVendor: p.Name, logging.KeyImage: name}).Warn("no NFC feature number, skipping")
				continue
			}
		}

		path := path
		inputs = append(inputs, pipeline.Input{
			Name:          name,
			FeatureNumber: feature,
			ModelNames:    a.Devices.Models(p.Devices, name),
			Open: func() (image.Image, error) {
				photo, err := nfcimage.Load(path)
				if err != nil {
					return nil, err
				}
				return photo.Image, nil
			},
		})
	}
	return inputs
}
