// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package enginetest provides a deterministic engines.Engine implementation
// for tests, plus a compliance suite (RunEngineTests) that real engine
// adapters run against themselves.
//
// The test engine computes plain linear layer chains from seeded weights and
// "trains" by applying a deterministic, data-dependent nudge to every
// weight. It does not learn anything: its value is that identical inputs
// always produce identical outputs, every Train invocation is recorded for
// inspection, and serialization round-trips can be checked for exact
// behavioral equality.
package enginetest

import (
	"encoding/json"
	"slices"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gomlx/autoencoder/engines"
	"github.com/gomlx/gomlx/models/polymorphicjson"
	"github.com/pkg/errors"
)

// Name of the engine in the engines registry.
const Name = "test"

// seq numbers Train invocations process-wide, so tests can check ordering
// across engines.
var seq atomic.Int64

// TrainCall records one Train invocation.
type TrainCall struct {
	// Seq is a process-wide sequence number.
	Seq int64

	// Data is a deep copy of the training set given to Train.
	Data []engines.Sample

	// Opts are the options after FillDefaults.
	Opts engines.TrainOptions
}

// Engine is the deterministic test engine. Build it with New, usually
// through the engines registry under Name.
type Engine struct {
	spec engines.Spec
	seed int64

	// weights per computed layer, row-major [output][input].
	weights [][]float32

	// acts holds the per-layer activations of the last Run.
	acts [][]float32
	ran  bool

	// TrainCalls records every Train invocation in order.
	TrainCalls []TrainCall
}

// New builds a test engine with the given topology. The config string
// optionally holds an integer seed for the initial weights.
func New(spec engines.Spec, config string) (*Engine, error) {
	seed := int64(1)
	if config != "" {
		parsed, err := strconv.ParseInt(config, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "engine %q config must be an integer seed, got %q", Name, config)
		}
		seed = parsed
	}
	e := &Engine{spec: spec, seed: seed}
	e.initWeights()
	return e, nil
}

func init() {
	engines.Register(Name, func(spec engines.Spec, config string) (engines.Engine, error) {
		engine, err := New(spec, config)
		if err != nil {
			return nil, err
		}
		return engine, nil
	})
	polymorphicjson.Register(func() engines.Engine { return &Engine{} })
}

func (e *Engine) initWeights() {
	numLayers := e.spec.NumLayers()
	e.weights = make([][]float32, numLayers)
	for l := 0; l < numLayers; l++ {
		in := e.spec.InputSize
		if l > 0 {
			in = e.spec.LayerSize(l - 1)
		}
		out := e.spec.LayerSize(l)
		w := make([]float32, in*out)
		for ii := range w {
			w[ii] = 0.05 * float32((int64(l+1)*31+int64(ii)*7+e.seed)%13-6)
		}
		e.weights[l] = w
	}
}

// JSONTags implements polymorphicjson.JSONIdentifiable.
func (e *Engine) JSONTags() (typeName string, interfaceName string) {
	return Name, engines.InterfaceName
}

// Name implements engines.Engine.
func (e *Engine) Name() string { return Name }

// Spec implements engines.Engine.
func (e *Engine) Spec() engines.Spec { return e.spec }

// Run implements engines.Engine: a chain of plain linear maps.
func (e *Engine) Run(input []float32) ([]float32, error) {
	if len(input) != e.spec.InputSize {
		return nil, errors.Errorf("engine %q got input of length %d, want %d",
			Name, len(input), e.spec.InputSize)
	}
	x := slices.Clone(input)
	e.acts = e.acts[:0]
	for l := 0; l < e.spec.NumLayers(); l++ {
		in := len(x)
		out := e.spec.LayerSize(l)
		w := e.weights[l]
		y := make([]float32, out)
		for o := 0; o < out; o++ {
			row := w[o*in : (o+1)*in]
			var sum float32
			for ii, v := range x {
				sum += row[ii] * v
			}
			y[o] = sum
		}
		e.acts = append(e.acts, y)
		x = y
	}
	e.ran = true
	return slices.Clone(x), nil
}

// LayerActivation implements engines.Engine.
func (e *Engine) LayerActivation(layer int) ([]float32, error) {
	if !e.ran {
		return nil, errors.Errorf("engine %q has no layer activations before the first Run", Name)
	}
	if layer < 0 || layer >= len(e.acts) {
		return nil, errors.Errorf("engine %q has no layer %d, it has %d computed layers",
			Name, layer, len(e.acts))
	}
	return slices.Clone(e.acts[layer]), nil
}

// Train implements engines.Engine. It records the call and stirs the
// weights deterministically, it does not descend any gradient.
func (e *Engine) Train(data []engines.Sample, opts *engines.TrainOptions) (*engines.TrainStats, error) {
	filled := opts.FillDefaults()
	call := TrainCall{Seq: seq.Add(1), Opts: *filled}
	call.Data = make([]engines.Sample, len(data))
	for ii, sample := range data {
		call.Data[ii] = engines.Sample{
			Input:  slices.Clone(sample.Input),
			Target: slices.Clone(sample.Target),
		}
	}
	e.TrainCalls = append(e.TrainCalls, call)

	if len(data) == 0 {
		return nil, errors.Errorf("engine %q got an empty training set", Name)
	}
	start := time.Now()
	stats := &engines.TrainStats{}
	for iter := 1; iter <= filled.Iterations; iter++ {
		e.nudge(data, float32(filled.LearningRate))
		stats.Iterations = iter
		stats.Error = e.meanSquaredError(data)
		stats.Elapsed = time.Since(start)
		if filled.Callback != nil && iter%filled.CallbackPeriod == 0 {
			filled.Callback(*stats)
		}
		if stats.Error < filled.ErrorThresh {
			break
		}
	}
	if filled.Callback != nil {
		filled.Callback(*stats)
	}
	return stats, nil
}

func (e *Engine) nudge(data []engines.Sample, learningRate float32) {
	var mean float32
	var n int
	for _, sample := range data {
		for _, v := range sample.Input {
			mean += v
			n++
		}
	}
	if n > 0 {
		mean /= float32(n)
	}
	if mean == 0 {
		mean = 1
	}
	delta := learningRate * 0.001 * mean
	for l, w := range e.weights {
		for ii := range w {
			switch (l + ii) % 3 {
			case 0:
				w[ii] += delta
			case 1:
				w[ii] -= delta
			}
		}
	}
}

func (e *Engine) meanSquaredError(data []engines.Sample) float64 {
	var sum float64
	var n int
	for _, sample := range data {
		out, err := e.Run(sample.Input)
		if err != nil {
			continue
		}
		for ii, v := range out {
			diff := float64(v - sample.Target[ii])
			sum += diff * diff
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

type engineJSON struct {
	JSONType      string       `json:"json_type"`
	InterfaceName string       `json:"interface_name"`
	Spec          engines.Spec `json:"spec"`
	Seed          int64        `json:"seed"`
	Weights       [][]float32  `json:"weights"`
}

// MarshalJSON implements json.Marshaler. The recorded Train calls are
// transient and not serialized.
func (e *Engine) MarshalJSON() ([]byte, error) {
	typeName, interfaceName := e.JSONTags()
	return json.Marshal(engineJSON{
		JSONType:      typeName,
		InterfaceName: interfaceName,
		Spec:          e.spec,
		Seed:          e.seed,
		Weights:       e.weights,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Engine) UnmarshalJSON(b []byte) error {
	var stored engineJSON
	if err := json.Unmarshal(b, &stored); err != nil {
		return errors.Wrapf(err, "failed to parse %q engine JSON", Name)
	}
	if err := stored.Spec.Validate(); err != nil {
		return err
	}
	e.spec = stored.Spec
	e.seed = stored.Seed
	e.weights = stored.Weights
	e.acts = nil
	e.ran = false
	e.TrainCalls = nil
	return nil
}
