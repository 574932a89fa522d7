// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package enginetest

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/gomlx/autoencoder/engines"
	"github.com/gomlx/gomlx/models/polymorphicjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunEngineTests runs the generic compliance checks every engines.Engine
// implementation must pass. Adapter tests call it with their registered
// name and constructor.
func RunEngineTests(t *testing.T, name string, constructor engines.Constructor) {
	spec := engines.Spec{InputSize: 6, OutputSize: 6, HiddenLayers: []int{4, 2, 4}}
	input := []float32{0, 1, 1, 0, 1, 0}
	newEngine := func(t *testing.T) engines.Engine {
		engine, err := constructor(spec, "")
		require.NoError(t, err)
		require.Equal(t, name, engine.Name())
		require.True(t, engine.Spec().Equal(spec), "engine reports spec %s, want %s", engine.Spec(), spec)
		return engine
	}

	t.Run("run", func(t *testing.T) {
		engine := newEngine(t)
		_, err := engine.LayerActivation(1)
		require.Error(t, err, "layer activations are only defined after a Run call")

		out, err := engine.Run(input)
		require.NoError(t, err)
		require.Len(t, out, spec.OutputSize)

		again, err := engine.Run(input)
		require.NoError(t, err)
		assert.Equal(t, out, again, "inference must be deterministic")

		_, err = engine.Run([]float32{1, 2})
		require.Error(t, err, "input length must be validated")
	})

	t.Run("layer_activation", func(t *testing.T) {
		engine := newEngine(t)
		out, err := engine.Run(input)
		require.NoError(t, err)
		for layer := 0; layer < spec.NumLayers(); layer++ {
			act, err := engine.LayerActivation(layer)
			require.NoErrorf(t, err, "layer %d", layer)
			assert.Lenf(t, act, spec.LayerSize(layer), "layer %d", layer)
		}
		last, err := engine.LayerActivation(spec.NumLayers() - 1)
		require.NoError(t, err)
		assert.Equal(t, out, last, "the last computed layer is the output layer")

		_, err = engine.LayerActivation(spec.NumLayers())
		require.Error(t, err)
		_, err = engine.LayerActivation(-1)
		require.Error(t, err)
	})

	t.Run("train", func(t *testing.T) {
		engine := newEngine(t)
		before, err := engine.Run(input)
		require.NoError(t, err)

		data := []engines.Sample{
			{Input: input, Target: input},
			{Input: []float32{1, 0, 0, 1, 0, 1}, Target: []float32{1, 0, 0, 1, 0, 1}},
		}
		var callbacks int
		stats, err := engine.Train(data, &engines.TrainOptions{
			Iterations:     10,
			LearningRate:   0.5,
			ErrorThresh:    1e-9,
			Callback:       func(engines.TrainStats) { callbacks++ },
			CallbackPeriod: 2,
		})
		require.NoError(t, err)
		require.NotNil(t, stats)
		assert.Greater(t, stats.Iterations, 0)
		assert.False(t, math.IsNaN(stats.Error), "training error must be a number, got %v", stats.Error)
		assert.Greater(t, callbacks, 0, "the training callback must be invoked")

		after, err := engine.Run(input)
		require.NoError(t, err)
		assert.NotEqual(t, before, after, "training must mutate the engine weights")
	})

	t.Run("json_round_trip", func(t *testing.T) {
		engine := newEngine(t)
		_, err := engine.Train([]engines.Sample{{Input: input, Target: input}},
			&engines.TrainOptions{Iterations: 3, LearningRate: 0.5, ErrorThresh: 1e-9})
		require.NoError(t, err)
		want, err := engine.Run(input)
		require.NoError(t, err)

		encoded, err := json.Marshal(polymorphicjson.Wrap[engines.Engine](engine))
		require.NoError(t, err)
		assert.Contains(t, string(encoded), `"json_type"`)
		assert.Contains(t, string(encoded), engines.InterfaceName)

		var restored polymorphicjson.Wrapper[engines.Engine]
		require.NoError(t, json.Unmarshal(encoded, &restored))
		require.NotNil(t, restored.Value)
		assert.True(t, restored.Value.Spec().Equal(spec))
		got, err := restored.Value.Run(input)
		require.NoError(t, err)
		assert.Equal(t, want, got, "a restored engine must run exactly like the original")
	})
}
