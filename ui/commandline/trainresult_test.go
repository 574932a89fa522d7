// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package commandline

import (
	"testing"
	"time"

	"github.com/gomlx/autoencoder"
	"github.com/gomlx/autoencoder/engines"
	"github.com/stretchr/testify/assert"
)

func TestTrainResultTable(t *testing.T) {
	result := &autoencoder.TrainResult{
		Encoder: &engines.TrainStats{Iterations: 12345, Error: 0.001234, Elapsed: 1500 * time.Millisecond},
		Decoder: &engines.TrainStats{Iterations: 200, Error: 0.04, Elapsed: 30 * time.Millisecond},
	}
	rendered := TrainResultTable(result)
	assert.Contains(t, rendered, "encoder")
	assert.Contains(t, rendered, "decoder")
	assert.Contains(t, rendered, "12,345")
	assert.Contains(t, rendered, "0.001234")
	assert.Contains(t, rendered, "1.5s")

	assert.Empty(t, TrainResultTable(nil))
	assert.Empty(t, TrainResultTable(&autoencoder.TrainResult{}))
}

func TestPrintTrainResult(t *testing.T) {
	buf := captureOutput(t)
	PrintTrainResult(&autoencoder.TrainResult{
		Encoder: &engines.TrainStats{Iterations: 5},
		Decoder: &engines.TrainStats{Iterations: 7},
	})
	assert.Contains(t, buf.String(), "Phase")
	assert.Contains(t, buf.String(), "Elapsed")
}
