// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package commandline

import (
	"bytes"
	"testing"

	"github.com/gomlx/autoencoder"
	"github.com/gomlx/autoencoder/engines"
	_ "github.com/gomlx/autoencoder/engines/enginetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	var buf bytes.Buffer
	previous := Output
	Output = &buf
	t.Cleanup(func() { Output = previous })
	return &buf
}

func TestAttachProgressBar(t *testing.T) {
	buf := captureOutput(t)
	var chainedCalls int
	opts := AttachProgressBar(&engines.TrainOptions{
		Iterations:     100,
		CallbackPeriod: 1,
		Callback:       func(engines.TrainStats) { chainedCalls++ },
	})
	require.NotNil(t, opts.Callback)
	assert.Equal(t, 100, opts.Iterations)

	opts.Callback(engines.TrainStats{Iterations: 10, Error: 0.5})
	opts.Callback(engines.TrainStats{Iterations: 50, Error: 0.1})
	assert.Equal(t, 2, chainedCalls)
	assert.Contains(t, buf.String(), "error=0.1")

	// A lower iteration count means a new phase started, the bar restarts.
	opts.Callback(engines.TrainStats{Iterations: 5, Error: 0.9})
	assert.Equal(t, 3, chainedCalls)
	assert.Contains(t, buf.String(), "error=0.9")
}

func TestAttachProgressBarNilOptions(t *testing.T) {
	captureOutput(t)
	opts := AttachProgressBar(nil)
	require.NotNil(t, opts.Callback)
	assert.Equal(t, engines.DefaultIterations, opts.Iterations)
	opts.Callback(engines.TrainStats{Iterations: 1, Error: 0.25})
}

func TestAttachProgressBarTraining(t *testing.T) {
	buf := captureOutput(t)
	ae, err := autoencoder.New(4, 2).Engine("test").Done()
	require.NoError(t, err)
	data := [][]float32{
		{1, 0, 1, 0},
		{0, 1, 0, 1},
	}
	opts := AttachProgressBar(&engines.TrainOptions{
		Iterations:     20,
		ErrorThresh:    1e-9,
		CallbackPeriod: 5,
	})
	_, err = ae.Train(data, opts)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "error=")
}
