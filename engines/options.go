// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package engines

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// Sample is one supervised training pair.
type Sample struct {
	Input  []float32
	Target []float32
}

// Defaults used for the zero values of the corresponding TrainOptions
// fields.
const (
	DefaultIterations     = 2000
	DefaultErrorThresh    = 0.005
	DefaultLearningRate   = 0.1
	DefaultCallbackPeriod = 10
)

// TrainOptions configures a call to Engine.Train.
//
// A nil or zero value is valid: zero fields take the Default* constants
// above. Settings specific to one engine go in EngineParams and pass
// through unvalidated.
type TrainOptions struct {
	// Iterations is the maximum number of training epochs.
	Iterations int

	// ErrorThresh stops training early once the mean training error falls
	// below it.
	ErrorThresh float64

	// LearningRate is the step size for weight updates.
	LearningRate float64

	// LogPeriod makes the engine log the training error through klog.V(1)
	// every LogPeriod iterations. Zero disables it.
	LogPeriod int

	// Callback, if set, is invoked with a progress snapshot every
	// CallbackPeriod iterations and once more when training finishes.
	Callback func(stats TrainStats)

	// CallbackPeriod defaults to DefaultCallbackPeriod.
	CallbackPeriod int

	// EngineParams holds engine-specific options, passed through
	// unvalidated. See GetParamOr.
	EngineParams map[string]any
}

// FillDefaults returns a copy of the options (nil is a valid receiver) with
// zero fields replaced by the package defaults.
func (o *TrainOptions) FillDefaults() *TrainOptions {
	var filled TrainOptions
	if o != nil {
		filled = *o
	}
	if filled.Iterations <= 0 {
		filled.Iterations = DefaultIterations
	}
	if filled.ErrorThresh <= 0 {
		filled.ErrorThresh = DefaultErrorThresh
	}
	if filled.LearningRate <= 0 {
		filled.LearningRate = DefaultLearningRate
	}
	if filled.CallbackPeriod <= 0 {
		filled.CallbackPeriod = DefaultCallbackPeriod
	}
	return &filled
}

// GetParamOr returns the engine-specific parameter stored under key, or
// defaultValue if it is unset or holds a different type.
func GetParamOr[T any](o *TrainOptions, key string, defaultValue T) T {
	if o == nil || o.EngineParams == nil {
		return defaultValue
	}
	value, found := o.EngineParams[key]
	if !found {
		return defaultValue
	}
	typed, ok := value.(T)
	if !ok {
		return defaultValue
	}
	return typed
}

// TrainStats reports the outcome of a training run, or a snapshot of one
// while it is still going, when delivered through TrainOptions.Callback.
type TrainStats struct {
	// Iterations run so far.
	Iterations int

	// Error is the mean training error after the last iteration.
	Error float64

	// Elapsed wall time.
	Elapsed time.Duration
}

// String implements fmt.Stringer.
func (s TrainStats) String() string {
	return fmt.Sprintf("%s iterations, error=%.6f, elapsed=%s",
		humanize.Comma(int64(s.Iterations)), s.Error, s.Elapsed.Round(time.Millisecond))
}
