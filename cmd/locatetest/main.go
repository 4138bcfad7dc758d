// Command locatetest runs one vendor profile on a single photo and prints
// the phone body, chip and normalized NFC rectangles.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"nfc-locator/internal/chip"
	"nfc-locator/internal/contour"
	nfcimage "nfc-locator/internal/image"
	"nfc-locator/internal/ocr"
	"nfc-locator/internal/vendor"
	"nfc-locator/pkg/geometry"

	"github.com/spf13/cobra"
)

type options struct {
	image    string
	vendor   string
	feature  int
	vendors  string
	tessdata string
	timeout  time.Duration
}

func main() {
	opts := &options{}
	if err := newRootCmd(opts).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "locatetest",
		Short:         "Locate the NFC area in one photo",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return locate(*opts)
		},
	}
	cmd.Flags().StringVar(&opts.image, "image", "", "Path to product photo")
	cmd.Flags().StringVar(&opts.vendor, "vendor", vendor.Samsung, "Vendor profile")
	cmd.Flags().IntVar(&opts.feature, "feature", -1, "NFC feature number for label-based profiles")
	cmd.Flags().StringVar(&opts.vendors, "vendors", "", "YAML file overriding vendor profiles")
	cmd.Flags().StringVar(&opts.tessdata, "tessdata", os.Getenv("NFC_TESSDATA_PREFIX"), "Tesseract data directory")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", time.Minute, "Time limit")
	_ = cmd.MarkFlagRequired("image")
	return cmd
}

func locate(opts options) error {
	profiles, err := vendor.Load(opts.vendors)
	if err != nil {
		return err
	}
	p, ok := profiles[opts.vendor]
	if !ok {
		return fmt.Errorf("unknown vendor %q (have %v)", opts.vendor, vendor.Names(profiles))
	}

	photo, err := nfcimage.Load(opts.image)
	if err != nil {
		return err
	}
	bounds := photo.Image.Bounds()
	fmt.Printf("Loaded %s: %dx%d pixels\n", photo.Name, bounds.Dx(), bounds.Dy())
	fmt.Printf("Profile: %s (edge %s, chip %s/%s)\n", p.Name, p.Edge.Variant, p.Chip.Strategy, p.Chip.Selection)

	var finder chip.LabelFinder
	if p.Chip.Strategy == chip.StrategyLabel {
		eng, err := ocr.Shared(opts.tessdata)
		if err != nil {
			return err
		}
		defer ocr.CloseShared()
		finder = ocr.NewLabelFinder(eng)
	}

	det, err := p.Detector()
	if err != nil {
		return err
	}
	loc, err := p.Locator(finder)
	if err != nil {
		return err
	}

	mat, err := contour.FromImage(photo.Image)
	if err != nil {
		return err
	}
	defer mat.Close()

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	start := time.Now()
	body, err := det.Detect(ctx, mat)
	if err != nil {
		return fmt.Errorf("edge: %w", err)
	}
	fmt.Printf("\nPhone body:  %v (%dx%d)\n", body, body.Width(), body.Height())

	area, err := loc.Locate(ctx, mat, chip.Context{FeatureNumber: opts.feature})
	if err != nil {
		return fmt.Errorf("chip: %w", err)
	}
	fmt.Printf("Chip:        %v (%dx%d)\n", area, area.Width(), area.Height())
	fmt.Printf("NFC area:    %v\n", geometry.Normalize(area, body))
	fmt.Printf("\nDone in %v\n", time.Since(start).Round(time.Millisecond))
	return nil
}
