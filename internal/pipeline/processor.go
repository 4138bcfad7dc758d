// Package pipeline runs the edge detector and chip locator over product
// photos and turns the results into normalized records.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"runtime"
	"sync"
	"time"

	"nfc-locator/internal/chip"
	"nfc-locator/internal/contour"
	"nfc-locator/internal/edge"
	"nfc-locator/internal/logging"
	"nfc-locator/internal/ocr"
	"nfc-locator/internal/vendor"
	"nfc-locator/pkg/geometry"

	"github.com/sirupsen/logrus"
)

// Input is one photo to analyze.
type Input struct {
	// Name is the marketing name parsed from the file name.
	Name string
	// Image is the decoded photo. When nil, Open is called instead.
	Image image.Image
	// Open loads the photo lazily so that a batch does not hold every
	// decoded image at once.
	Open func() (image.Image, error)
	// FeatureNumber is the NFC callout number, or -1.
	FeatureNumber int
	ModelNames    []string
}

// Processor analyzes the photos of one vendor.
type Processor struct {
	Vendor       string
	Manufacturer string
	Detector     edge.Detector
	Locator      chip.Locator
	Log          logrus.FieldLogger

	// Workers bounds concurrent images in Run. Zero means runtime.NumCPU().
	Workers int
	// Timeout bounds each image in Run. Zero disables it.
	Timeout time.Duration
}

// NewProcessor builds a processor from a vendor profile. finder is only
// needed by profiles that locate the chip through its printed label.
func NewProcessor(p vendor.Profile, finder chip.LabelFinder, log logrus.FieldLogger) (*Processor, error) {
	det, err := p.Detector()
	if err != nil {
		return nil, err
	}
	loc, err := p.Locator(finder)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.Logger()
	}
	return &Processor{
		Vendor:       p.Name,
		Manufacturer: p.Manufacturer,
		Detector:     det,
		Locator:      loc,
		Log:          log,
	}, nil
}

func (p *Processor) fail(in Input, stage Stage, err error) error {
	return &StageError{Vendor: p.Vendor, Image: in.Name, Stage: stage, Err: err}
}

// Process analyzes a single photo.
func (p *Processor) Process(ctx context.Context, in Input) (Record, error) {
	img := in.Image
	if img == nil && in.Open != nil {
		var err error
		if img, err = in.Open(); err != nil {
			return Record{}, p.fail(in, StageDecode, err)
		}
	}
	if img == nil || img.Bounds().Empty() {
		return Record{}, p.fail(in, StageInput, ErrInvalidInput)
	}

	mat, err := contour.FromImage(img)
	if err != nil {
		return Record{}, p.fail(in, StageInput, fmt.Errorf("%w: %w", ErrInvalidInput, err))
	}
	defer mat.Close()

	body, err := p.Detector.Detect(ctx, mat)
	if err != nil {
		return Record{}, p.fail(in, StageEdge, err)
	}
	if !body.Valid() || body.Width() == 0 || body.Height() == 0 {
		return Record{}, p.fail(in, StageEdge, fmt.Errorf("%w: degenerate phone body %v", edge.ErrNotFound, body))
	}

	area, err := p.Locator.Locate(ctx, mat, chip.Context{FeatureNumber: in.FeatureNumber})
	if err != nil {
		stage := StageChip
		if errors.Is(err, ocr.ErrLabelNotFound) {
			stage = StageLabel
		}
		return Record{}, p.fail(in, stage, err)
	}
	if !area.Valid() {
		return Record{}, p.fail(in, StageChip, fmt.Errorf("%w: invalid rectangle %v", chip.ErrNotFound, area))
	}

	pos := geometry.Normalize(area, body)
	if p.Log != nil {
		p.Log.WithFields(logging.Fields{
			logging.KeyVendor: p.Vendor,
			logging.KeyImage:  in.Name,
			"edge":            body.String(),
			"chip":            area.String(),
			"nfc_pos":         pos.String(),
		}).Debug("located nfc area")
	}

	models := in.ModelNames
	if models == nil {
		models = []string{}
	}
	return Record{
		Manufacturer:  p.Manufacturer,
		MarketingName: in.Name,
		ModelNames:    models,
		NFCPos:        pos,
	}, nil
}

// Result is the outcome of a batch.
type Result struct {
	// Records holds the successful images in input order.
	Records []Record
	// Failures holds one error per skipped image, in input order.
	Failures []error
}

// Run processes inputs concurrently. Failing images are logged and skipped;
// they never stop the batch. Canceling ctx skips the images not yet started.
func (p *Processor) Run(ctx context.Context, inputs []Input) Result {
	log := p.Log
	if log == nil {
		log = logging.Logger()
	}
	entry, _ := logging.ForRun(log)
	entry = entry.WithField(logging.KeyVendor, p.Vendor)

	workers := p.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, max(len(inputs), 1))

	type outcome struct {
		rec Record
		err error
	}
	outcomes := make([]outcome, len(inputs))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				rec, err := p.processOne(ctx, inputs[i])
				outcomes[i] = outcome{rec, err}
			}
		}()
	}

	start := time.Now()
	for i := range inputs {
		if ctx.Err() != nil {
			outcomes[i].err = p.fail(inputs[i], StageCanceled, ctx.Err())
			continue
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	var res Result
	for i, o := range outcomes {
		if o.err != nil {
			res.Failures = append(res.Failures, o.err)
			fields := logging.Fields{
				logging.KeyImage: inputs[i].Name,
				logging.KeyError: o.err.Error(),
			}
			var se *StageError
			if errors.As(o.err, &se) {
				fields[logging.KeyStage] = string(se.Stage)
				fields[logging.KeyError] = se.Err.Error()
			}
			entry.WithFields(fields).Warn("image skipped")
			continue
		}
		res.Records = append(res.Records, o.rec)
	}

	entry.WithFields(logging.Fields{
		"images":   len(inputs),
		"located":  len(res.Records),
		"skipped":  len(res.Failures),
		"duration": time.Since(start).Round(time.Millisecond).String(),
	}).Info("batch finished")
	return res
}

func (p *Processor) processOne(ctx context.Context, in Input) (Record, error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	return p.Process(ctx, in)
}
