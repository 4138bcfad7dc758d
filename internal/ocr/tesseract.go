// Package ocr finds printed feature numbers in product sheets.
package ocr

import (
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
	"gocv.io/x/gocv"
)

// Digits is the character set for feature-number recognition.
const Digits = "0123456789"

// Word is a single recognized token with its pixel bounds. Confidence is in [0,1].
type Word struct {
	Text       string
	Bounds     image.Rectangle
	Confidence float64
}

// Recognizer returns the digit tokens found in an image.
type Recognizer interface {
	Words(img gocv.Mat) ([]Word, error)
}

// Engine provides digit recognition using Tesseract. It is safe for
// concurrent use; calls are serialized on the underlying client.
type Engine struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// NewEngine creates a new OCR engine. An empty tessdataPrefix uses the
// Tesseract default search path.
func NewEngine(tessdataPrefix string) (*Engine, error) {
	client := gosseract.NewClient()

	if tessdataPrefix != "" {
		if err := client.SetTessdataPrefix(tessdataPrefix); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set tessdata prefix: %w", err)
		}
	}

	if err := client.SetLanguage("eng"); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}

	// Feature numbers aren't dictionary words
	_ = client.SetVariable("load_system_dawg", "false")
	_ = client.SetVariable("load_freq_dawg", "false")

	if err := client.SetWhitelist(Digits); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set whitelist: %w", err)
	}

	// Labels are scattered single numbers around the drawing
	if err := client.SetPageSegMode(gosseract.PSM_SPARSE_TEXT); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set PSM: %w", err)
	}

	return &Engine{client: client}, nil
}

// Close releases OCR resources.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client != nil {
		err := e.client.Close()
		e.client = nil
		return err
	}
	return nil
}

// Words implements Recognizer.
func (e *Engine) Words(img gocv.Mat) ([]Word, error) {
	if img.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	buf, err := gocv.IMEncode(gocv.PNGFileExt, img)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	defer buf.Close()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.client == nil {
		return nil, fmt.Errorf("OCR engine closed")
	}

	if err := e.client.SetImageFromBytes(buf.GetBytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("failed to get boxes: %w", err)
	}

	words := make([]Word, 0, len(boxes))
	for _, box := range boxes {
		text := strings.TrimSpace(box.Word)
		if text == "" {
			continue
		}
		words = append(words, Word{
			Text:       text,
			Bounds:     box.Box,
			Confidence: box.Confidence / 100,
		})
	}
	return words, nil
}

var (
	sharedMu     sync.Mutex
	sharedEngine *Engine
)

// Shared returns the process-wide engine, creating it on first use.
// Construction is expensive, so callers share one instance and release it
// with CloseShared when the batch is done.
func Shared(tessdataPrefix string) (*Engine, error) {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if sharedEngine != nil {
		return sharedEngine, nil
	}
	e, err := NewEngine(tessdataPrefix)
	if err != nil {
		return nil, err
	}
	sharedEngine = e
	return e, nil
}

// CloseShared releases the process-wide engine. A later Shared call builds
// a new one.
func CloseShared() error {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if sharedEngine == nil {
		return nil
	}
	err := sharedEngine.Close()
	sharedEngine = nil
	return err
}
