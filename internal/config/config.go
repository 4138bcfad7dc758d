// Package config reads the runtime settings of the batch tool from the
// environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Environment keys.
const (
	EnvImageDir       = "NFC_IMAGE_DIR"
	EnvDBPath         = "NFC_DB_PATH"
	EnvDeviceList     = "NFC_DEVICE_LIST"
	EnvFeatureList    = "NFC_FEATURE_LIST"
	EnvVendorConfig   = "NFC_VENDOR_CONFIG"
	EnvWorkers        = "NFC_WORKERS"
	EnvImageTimeout   = "NFC_IMAGE_TIMEOUT"
	EnvLogDir         = "NFC_LOG_DIR"
	EnvTessdataPrefix = "NFC_TESSDATA_PREFIX"
	EnvAppEnv         = "APP_ENV"
)

// Defaults.
const (
	DefaultImageDir     = "images"
	DefaultDBPath       = "nfc_positions.json"
	DefaultDeviceList   = "supported_devices.csv"
	DefaultFeatureList  = "features.json"
	DefaultImageTimeout = 30 * time.Second
	DefaultLogDir       = "./storage/logs"
	DefaultAppEnv       = "dev"

	// MaxWorkers caps the worker count, including the CPU-based default.
	MaxWorkers = 256
)

// Config holds the settings of one run.
type Config struct {
	AppEnv         string        `validate:"oneof=dev test prod"`
	ImageDir       string        `validate:"required"`
	DBPath         string        `validate:"required"`
	DeviceList     string        `validate:"required"`
	FeatureList    string        `validate:"required"`
	VendorConfig   string
	Workers        int           `validate:"gte=1,lte=256"`
	ImageTimeout   time.Duration `validate:"gt=0"`
	LogDir         string
	TessdataPrefix string
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		AppEnv:       DefaultAppEnv,
		ImageDir:     DefaultImageDir,
		DBPath:       DefaultDBPath,
		DeviceList:   DefaultDeviceList,
		FeatureList:  DefaultFeatureList,
		Workers:      min(runtime.NumCPU(), MaxWorkers),
		ImageTimeout: DefaultImageTimeout,
		LogDir:       DefaultLogDir,
	}
}

// Load builds a Config from the defaults, the .env file at envFile (if it
// exists) and the process environment, in increasing priority.
func Load(envFile string) (Config, error) {
	file := map[string]string{}
	if envFile != "" {
		values, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			file = values
		case !errors.Is(err, os.ErrNotExist):
			return Config{}, fmt.Errorf("failed to read %s: %w", envFile, err)
		}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
		v, ok := file[key]
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}
	return fromLookup(lookup)
}

func fromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	strs := map[string]*string{
		EnvAppEnv:         &cfg.AppEnv,
		EnvImageDir:       &cfg.ImageDir,
		EnvDBPath:         &cfg.DBPath,
		EnvDeviceList:     &cfg.DeviceList,
		EnvFeatureList:    &cfg.FeatureList,
		EnvVendorConfig:   &cfg.VendorConfig,
		EnvLogDir:         &cfg.LogDir,
		EnvTessdataPrefix: &cfg.TessdataPrefix,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	if v, ok := lookup(EnvWorkers); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		cfg.Workers = n
	}
	if v, ok := lookup(EnvImageTimeout); ok {
		d, err := parseTimeout(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvImageTimeout, err)
		}
		cfg.ImageTimeout = d
	}

	return cfg, nil
}

// parseTimeout accepts a Go duration or a plain number of seconds.
func parseTimeout(v string) (time.Duration, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(v)
}

var validate = validator.New()

// Validate checks the configuration after flags have been applied.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (got %v)", fe.Field(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
