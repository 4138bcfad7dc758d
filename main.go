// Package main provides the entry point for the NFC locator batch tool.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"nfc-locator/internal/app"
	"nfc-locator/internal/config"
	"nfc-locator/internal/logging"
	"nfc-locator/internal/version"

	"github.com/spf13/cobra"
)

type options struct {
	cfg    config.Config
	vendor string
	clean  bool
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}
	cmd := newRootCmd(&options{cfg: cfg, vendor: app.AllVendors})
	cmd.SetArgs(args)
	return cmd.Execute()
}

func newRootCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "nfc-locator",
		Short:         "Locate the NFC antenna in phone product photos",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd.Context(), *opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.vendor, "vendor", opts.vendor, "Vendor to process: all or a profile name")
	f.StringVar(&opts.cfg.ImageDir, "images", opts.cfg.ImageDir, "Directory holding one subdirectory of photos per vendor")
	f.StringVar(&opts.cfg.DBPath, "db", opts.cfg.DBPath, "JSON file of located records")
	f.StringVar(&opts.cfg.DeviceList, "devices", opts.cfg.DeviceList, "Google Play supported devices CSV")
	f.StringVar(&opts.cfg.FeatureList, "features", opts.cfg.FeatureList, "JSON feature lists used to number diagram callouts")
	f.StringVar(&opts.cfg.VendorConfig, "vendors", opts.cfg.VendorConfig, "YAML file overriding vendor profiles")
	f.IntVar(&opts.cfg.Workers, "workers", opts.cfg.Workers, "Photos analyzed concurrently")
	f.DurationVar(&opts.cfg.ImageTimeout, "timeout", opts.cfg.ImageTimeout, "Time limit per photo")
	f.BoolVar(&opts.clean, "clean", false, "Delete a vendor's photos after its records are saved")

	return cmd
}

func runBatch(ctx context.Context, opts options) error {
	if err := opts.cfg.Validate(); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logging.Init(logging.Options{Env: opts.cfg.AppEnv, Dir: opts.cfg.LogDir})
	log.WithField("version", version.Version).Info("starting nfc-locator")

	a, err := app.New(opts.cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	a.On(app.EventVendorStarted, func(data interface{}) {
		res := data.(app.VendorResult)
		fmt.Printf("%s: %d photos, %d to analyze (%d known, %d duplicate, %d without NFC feature)\n",
			res.Vendor, len(res.Photos), res.Processed, res.Known, res.Duplicates, res.NoFeature)
	})
	a.On(app.EventVendorFinished, func(data interface{}) {
		res := data.(app.VendorResult)
		fmt.Printf("%s: located %d, skipped %d, added %d records\n",
			res.Vendor, res.Located, len(res.Failures), res.Added)
	})
	a.On(app.EventStoreSaved, func(data interface{}) {
		fmt.Printf("Saved %d records to %s\n", a.Store.Len(), data)
	})
	a.On(app.EventPhotosRemoved, func(data interface{}) {
		fmt.Printf("Removed %d photos\n", len(data.([]string)))
	})

	_, err = a.Run(ctx, opts.vendor, opts.clean)
	return err
}
