package pipeline

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned for a missing or zero-area image. It is never
// retried.
var ErrInvalidInput = errors.New("invalid input image")

// Stage names the step of the pipeline that failed.
type Stage string

const (
	StageDecode Stage = "decode"
	StageInput  Stage = "input"
	StageEdge   Stage = "edge"
	StageChip   Stage = "chip"

	// StageLabel is a chip failure caused by the feature label not being read.
	StageLabel Stage = "label"

	// StageCanceled marks images never started because the batch was canceled.
	StageCanceled Stage = "canceled"
)

// StageError records which image failed where.
type StageError struct {
	Vendor string
	Image  string
	Stage  Stage
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s %q: %s: %v", e.Vendor, e.Image, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
