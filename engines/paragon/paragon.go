// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package paragon implements the autoencoder engines.Engine interface on
// top of the Paragon neural network library
// (github.com/openfluke/paragon/v3), using float32 grid networks of height
// one.
//
// Importing the package registers the engine under the name "paragon".
// The engine config string selects the hidden layer activation ("sigmoid",
// "tanh", "relu" or "linear"); the output layer is always sigmoid.
package paragon

import (
	"encoding/json"
	"math"
	"slices"
	"time"

	"github.com/gomlx/autoencoder/engines"
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gomlx/models/polymorphicjson"
	paragon "github.com/openfluke/paragon/v3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"k8s.io/klog/v2"
)

// Name of the engine in the engines registry.
const Name = "paragon"

// Engine drives a Paragon network whose layers are all 1-row grids, so
// layer widths map directly to vector lengths.
type Engine struct {
	spec    engines.Spec
	actName string
	net     *paragon.Network[float32]

	// acts holds the per-layer activations captured by the last Run.
	acts [][]float32
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

// catchPanic runs fn and converts any panic to an error. Paragon reports
// construction and shape problems by panicking with plain strings, which
// exceptions.TryCatch[error] would not catch.
func catchPanic(fn func()) error {
	exception := exceptions.Try(fn)
	if exception == nil {
		return nil
	}
	if err, ok := exception.(error); ok {
		return err
	}
	return errors.Errorf("%v", exception)
}

func parseActivation(name string) (string, error) {
	switch name {
	case "":
		return "sigmoid", nil
	case "sigmoid", "tanh", "relu", "linear":
		return name, nil
	}
	return "", errors.Errorf("engine %q doesn't know activation %q", Name, name)
}

// New builds a paragon engine with the given topology. See the package
// documentation for the config string format.
func New(spec engines.Spec, config string) (*Engine, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	actName, err := parseActivation(config)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		spec:    spec,
		actName: actName,
	}
	if err := catchPanic(func() { e.net = buildNetwork(spec, actName) }); err != nil {
		return nil, errors.Wrapf(err, "engine %q failed to build a network for %s", Name, spec)
	}
	return e, nil
}

func buildNetwork(spec engines.Spec, actName string) *paragon.Network[float32] {
	numLayers := spec.NumLayers()
	layerSizes := make([]struct{ Width, Height int }, numLayers+1)
	activations := make([]string, numLayers+1)
	fullyConnected := make([]bool, numLayers+1)
	layerSizes[0] = struct{ Width, Height int }{Width: spec.InputSize, Height: 1}
	activations[0] = "linear"
	fullyConnected[0] = true
	for l := 0; l < numLayers; l++ {
		layerSizes[l+1] = struct{ Width, Height int }{Width: spec.LayerSize(l), Height: 1}
		activations[l+1] = actName
		fullyConnected[l+1] = true
	}
	activations[numLayers] = "sigmoid"
	net := paragon.NewNetwork[float32](layerSizes, activations, fullyConnected)
	net.TypeName = "float32"
	return net
}

// JSONTags implements polymorphicjson.JSONIdentifiable.
func (e *Engine) JSONTags() (typeName string, interfaceName string) {
	return Name, engines.InterfaceName
}

// Name implements engines.Engine.
func (e *Engine) Name() string { return Name }

// Spec implements engines.Engine.
func (e *Engine) Spec() engines.Spec { return e.spec }

// inputRow converts a vector to the [1][width] shape Paragon's Forward
// expects from a 1-row input grid.
func inputRow(input []float32) [][]float64 {
	row := make([]float64, len(input))
	for ii, v := range input {
		row[ii] = float64(v)
	}
	return [][]float64{row}
}

// Run implements engines.Engine.
func (e *Engine) Run(input []float32) ([]float32, error) {
	if len(input) != e.spec.InputSize {
		return nil, errors.Errorf("engine %q got input of length %d, want %d",
			Name, len(input), e.spec.InputSize)
	}
	if err := catchPanic(func() { e.net.Forward(inputRow(input)) }); err != nil {
		return nil, errors.Wrapf(err, "engine %q forward pass failed", Name)
	}
	e.captureActivations()
	return slices.Clone(e.acts[len(e.acts)-1]), nil
}

// captureActivations snapshots the neuron values of every computed layer.
// Paragon's layer 0 is the input grid, so computed layer l is network
// layer l+1.
func (e *Engine) captureActivations() {
	numLayers := e.spec.NumLayers()
	e.acts = make([][]float32, numLayers)
	for l := 0; l < numLayers; l++ {
		grid := e.net.Layers[l+1]
		vals := make([]float32, grid.Width)
		for x := 0; x < grid.Width; x++ {
			vals[x] = grid.Neurons[0][x].Value
		}
		e.acts[l] = vals
	}
}

// LayerActivation implements engines.Engine.
func (e *Engine) LayerActivation(layer int) ([]float32, error) {
	if e.acts == nil {
		return nil, errors.Errorf("engine %q has no layer activations before the first Run", Name)
	}
	if layer < 0 || layer >= len(e.acts) {
		return nil, errors.Errorf("engine %q has no layer %d, it has %d computed layers",
			Name, layer, len(e.acts))
	}
	return slices.Clone(e.acts[layer]), nil
}

// outputRow reads the output grid values as float64 for loss arithmetic.
func (e *Engine) outputRow() []float64 {
	grid := e.net.Layers[e.net.OutputLayer]
	row := make([]float64, grid.Width)
	for x := 0; x < grid.Width; x++ {
		row[x] = float64(grid.Neurons[0][x].Value)
	}
	return row
}

// Train implements engines.Engine with per-sample gradient descent: each
// iteration runs every sample forward, accumulates the squared error and
// backpropagates before the next sample. Engine params honored: "clip"
// (float64, gradient clipping bound, defaults to 5).
func (e *Engine) Train(data []engines.Sample, opts *engines.TrainOptions) (*engines.TrainStats, error) {
	if len(data) == 0 {
		return nil, errors.Errorf("engine %q got an empty training set", Name)
	}
	inputs := make([][][]float64, len(data))
	targets := make([][][]float64, len(data))
	for ii, sample := range data {
		if len(sample.Input) != e.spec.InputSize || len(sample.Target) != e.spec.OutputSize {
			return nil, errors.Errorf("engine %q got sample #%d of shape %dx%d, want %dx%d",
				Name, ii, len(sample.Input), len(sample.Target), e.spec.InputSize, e.spec.OutputSize)
		}
		inputs[ii] = inputRow(sample.Input)
		targets[ii] = inputRow(sample.Target)
	}
	filled := opts.FillDefaults()
	clip := float32(engines.GetParamOr(opts, "clip", 5.0))

	stats := &engines.TrainStats{}
	var loopErr error
	if err := catchPanic(func() { loopErr = e.trainLoop(inputs, targets, filled, clip, stats) }); err != nil {
		return nil, errors.Wrapf(err, "engine %q training failed after %d iterations", Name, stats.Iterations)
	}
	if loopErr != nil {
		return nil, loopErr
	}
	e.acts = nil
	return stats, nil
}

func (e *Engine) trainLoop(inputs, targets [][][]float64, filled *engines.TrainOptions, clip float32, stats *engines.TrainStats) error {
	start := time.Now()
	lastLog := 0
	numValues := float64(len(inputs) * e.spec.OutputSize)
	for it := 1; it <= filled.Iterations; it++ {
		sumSq := 0.0
		for s := range inputs {
			e.net.Forward(inputs[s])
			dist := floats.Distance(e.outputRow(), targets[s][0], 2)
			sumSq += dist * dist
			e.net.Backward(targets[s], filled.LearningRate, clip, -clip)
		}
		stats.Iterations = it
		stats.Error = sumSq / numValues
		stats.Elapsed = time.Since(start)
		if math.IsNaN(stats.Error) {
			return errors.Errorf("engine %q training loss is NaN after %d iterations, training interrupted",
				Name, it)
		}
		if filled.LogPeriod > 0 && it-lastLog >= filled.LogPeriod {
			klog.V(1).Infof("engine %q (%s): %s", Name, e.spec, stats)
			lastLog = it
		}
		atCallback := it%filled.CallbackPeriod == 0 || it == filled.Iterations
		if filled.Callback != nil && atCallback {
			filled.Callback(*stats)
		}
		if stats.Error < filled.ErrorThresh {
			if filled.Callback != nil && !atCallback {
				filled.Callback(*stats)
			}
			return nil
		}
	}
	return nil
}

type engineJSON struct {
	JSONType      string          `json:"json_type"`
	InterfaceName string          `json:"interface_name"`
	Spec          engines.Spec    `json:"spec"`
	Activation    string          `json:"activation"`
	Model         json.RawMessage `json:"model"`
}

// MarshalJSON implements json.Marshaler, storing the full Paragon model
// (topology, weights and biases) under "model".
func (e *Engine) MarshalJSON() ([]byte, error) {
	model, err := e.net.MarshalJSONModel()
	if err != nil {
		return nil, errors.Wrapf(err, "engine %q failed to serialize its network", Name)
	}
	typeName, interfaceName := e.JSONTags()
	return json.Marshal(engineJSON{
		JSONType:      typeName,
		InterfaceName: interfaceName,
		Spec:          e.spec,
		Activation:    e.actName,
		Model:         model,
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
	if _, err := parseActivation(stored.Activation); err != nil {
		return err
	}
	net := &paragon.Network[float32]{}
	if err := net.UnmarshalJSONModel(stored.Model); err != nil {
		return errors.Wrapf(err, "engine %q failed to load its network from JSON", Name)
	}
	if net.TypeName != "" && net.TypeName != "float32" {
		return errors.Errorf("engine %q expects a float32 network, the JSON holds %q", Name, net.TypeName)
	}
	e.spec = stored.Spec
	e.actName = stored.Activation
	e.net = net
	e.acts = nil
	return e.verifyTopology()
}

// verifyTopology checks that the loaded network layer widths agree with the
// recorded spec. A disagreement means the JSON was corrupted or edited.
func (e *Engine) verifyTopology() error {
	numLayers := e.spec.NumLayers()
	if len(e.net.Layers) != numLayers+1 {
		return errors.Errorf("engine %q loaded %d layers, but the recorded spec %s implies %d",
			Name, len(e.net.Layers), e.spec, numLayers+1)
	}
	if grid := e.net.Layers[0]; grid.Width != e.spec.InputSize || grid.Height != 1 {
		return errors.Errorf("engine %q input layer is %dx%d, but the recorded spec %s implies 1x%d",
			Name, grid.Height, grid.Width, e.spec, e.spec.InputSize)
	}
	for l := 0; l < numLayers; l++ {
		grid := e.net.Layers[l+1]
		if grid.Width != e.spec.LayerSize(l) || grid.Height != 1 {
			return errors.Errorf("engine %q layer %d is %dx%d, but the recorded spec %s implies 1x%d",
				Name, l, grid.Height, grid.Width, e.spec, e.spec.LayerSize(l))
		}
	}
	return nil
}
