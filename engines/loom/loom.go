// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package loom implements the autoencoder engines.Engine interface on top
// of the pure Go LOOM neural network library (github.com/openfluke/loom).
//
// It is the default engine: importing the package registers it under the
// name "loom". The engine config string selects the hidden layer activation
// ("sigmoid", "tanh", "relu", "leaky_relu" or "softplus"); the output layer
// is always sigmoid, the networks predict bit probabilities in [0, 1].
package loom

import (
	"encoding/json"
	"math"
	"slices"
	"time"

	"github.com/gomlx/autoencoder/engines"
	"github.com/gomlx/gomlx/models/polymorphicjson"
	"github.com/gomlx/gomlx/pkg/support/xslices"
	"github.com/google/uuid"
	"github.com/openfluke/loom/nn"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Name of the engine in the engines registry.
const Name = "loom"

// Engine drives a single-row grid of dense LOOM layers.
type Engine struct {
	spec    engines.Spec
	id      string
	actName string
	net     *nn.Network

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

func parseActivation(name string) (nn.ActivationType, error) {
	switch name {
	case "", "sigmoid":
		return nn.ActivationSigmoid, nil
	case "tanh":
		return nn.ActivationTanh, nil
	case "relu", "scaled_relu":
		return nn.ActivationScaledReLU, nil
	case "leaky_relu":
		return nn.ActivationLeakyReLU, nil
	case "softplus":
		return nn.ActivationSoftplus, nil
	}
	return 0, errors.Errorf("engine %q doesn't know activation %q", Name, name)
}

// New builds a loom engine with the given topology. See the package
// documentation for the config string format.
func New(spec engines.Spec, config string) (*Engine, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	hiddenAct, err := parseActivation(config)
	if err != nil {
		return nil, err
	}
	actName := config
	if actName == "" {
		actName = "sigmoid"
	}
	e := &Engine{
		spec:    spec,
		id:      uuid.NewString(),
		actName: actName,
	}
	e.net = buildNetwork(spec, hiddenAct)
	return e, nil
}

func buildNetwork(spec engines.Spec, hiddenAct nn.ActivationType) *nn.Network {
	numLayers := spec.NumLayers()
	net := nn.NewNetwork(spec.InputSize, 1, numLayers, 1)
	net.BatchSize = 1
	in := spec.InputSize
	for l := 0; l < numLayers; l++ {
		out := spec.LayerSize(l)
		act := hiddenAct
		if l == numLayers-1 {
			act = nn.ActivationSigmoid
		}
		net.SetLayer(0, l, 0, nn.InitDenseLayer(in, out, act))
		in = out
	}
	net.InitializeWeights()
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

// Run implements engines.Engine.
func (e *Engine) Run(input []float32) ([]float32, error) {
	if len(input) != e.spec.InputSize {
		return nil, errors.Errorf("engine %q got input of length %d, want %d",
			Name, len(input), e.spec.InputSize)
	}
	output, _ := e.net.ForwardCPU(input)
	if len(output) != e.spec.OutputSize {
		return nil, errors.Errorf("engine %q produced output of length %d, want %d",
			Name, len(output), e.spec.OutputSize)
	}
	e.captureActivations(output)
	return slices.Clone(output), nil
}

// captureActivations snapshots the network's per-layer activations. The
// network reports them for all layers of the grid, possibly including the
// input layer, which is dropped to match the Spec.NumLayers indexing.
func (e *Engine) captureActivations(output []float32) {
	acts := e.net.Activations()
	numLayers := e.spec.NumLayers()
	if len(acts) == numLayers+1 && len(acts[0]) == e.spec.InputSize {
		acts = acts[1:]
	}
	e.acts = make([][]float32, numLayers)
	for l := 0; l < numLayers && l < len(acts); l++ {
		e.acts[l] = slices.Clone(acts[l])
	}
	// The output layer activation is the forward result itself.
	e.acts[numLayers-1] = slices.Clone(output)
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
	if e.acts[layer] == nil || len(e.acts[layer]) != e.spec.LayerSize(layer) {
		return nil, errors.Errorf("engine %q recorded no activation for layer %d", Name, layer)
	}
	return slices.Clone(e.acts[layer]), nil
}

// Train implements engines.Engine. LOOM trains in whole epochs, so the
// ErrorThresh early stop is checked between chunks of CallbackPeriod
// epochs. Engine params honored: "use_gpu" (bool), "grad_clip" (float64)
// and "loss" (string, defaults to "mse").
func (e *Engine) Train(data []engines.Sample, opts *engines.TrainOptions) (*engines.TrainStats, error) {
	if len(data) == 0 {
		return nil, errors.Errorf("engine %q got an empty training set", Name)
	}
	filled := opts.FillDefaults()
	batches := xslices.Map(data, func(sample engines.Sample) nn.TrainingBatch {
		return nn.TrainingBatch{Input: sample.Input, Target: sample.Target}
	})
	cfg := &nn.TrainingConfig{
		LearningRate: float32(filled.LearningRate),
		UseGPU:       engines.GetParamOr(opts, "use_gpu", false),
		GradientClip: float32(engines.GetParamOr(opts, "grad_clip", 0.0)),
		LossType:     engines.GetParamOr(opts, "loss", "mse"),
		Verbose:      false,
	}

	start := time.Now()
	stats := &engines.TrainStats{}
	lastLog := 0
	for stats.Iterations < filled.Iterations {
		chunk := filled.CallbackPeriod
		if remaining := filled.Iterations - stats.Iterations; chunk > remaining {
			chunk = remaining
		}
		cfg.Epochs = chunk
		result, err := e.net.Train(batches, cfg)
		if err != nil {
			return nil, errors.Wrapf(err, "engine %q training failed after %d iterations",
				Name, stats.Iterations)
		}
		stats.Iterations += chunk
		stats.Error = float64(result.FinalLoss)
		stats.Elapsed = time.Since(start)
		if math.IsNaN(stats.Error) {
			return nil, errors.Errorf("engine %q training loss is NaN after %d iterations, training interrupted",
				Name, stats.Iterations)
		}
		if filled.LogPeriod > 0 && stats.Iterations-lastLog >= filled.LogPeriod {
			klog.V(1).Infof("engine %q (%s): %s", Name, e.spec, stats)
			lastLog = stats.Iterations
		}
		if filled.Callback != nil {
			filled.Callback(*stats)
		}
		if stats.Error < filled.ErrorThresh {
			break
		}
	}
	e.acts = nil
	return stats, nil
}

type engineJSON struct {
	JSONType      string          `json:"json_type"`
	InterfaceName string          `json:"interface_name"`
	ID            string          `json:"id"`
	Spec          engines.Spec    `json:"spec"`
	Activation    string          `json:"activation"`
	Model         json.RawMessage `json:"model"`
}

// MarshalJSON implements json.Marshaler, storing the full LOOM model bundle
// (topology and weights) under "model".
func (e *Engine) MarshalJSON() ([]byte, error) {
	bundle, err := e.net.SaveModelToString(e.id)
	if err != nil {
		return nil, errors.Wrapf(err, "engine %q failed to serialize its network", Name)
	}
	typeName, interfaceName := e.JSONTags()
	return json.Marshal(engineJSON{
		JSONType:      typeName,
		InterfaceName: interfaceName,
		ID:            e.id,
		Spec:          e.spec,
		Activation:    e.actName,
		Model:         json.RawMessage(bundle),
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
	net, err := nn.LoadModelFromString(string(stored.Model), stored.ID)
	if err != nil {
		return errors.Wrapf(err, "engine %q failed to load its network from JSON", Name)
	}
	e.spec = stored.Spec
	e.id = stored.ID
	e.actName = stored.Activation
	e.net = net
	e.acts = nil
	return e.verifyTopology()
}

// verifyTopology checks that the loaded network layer widths agree with the
// recorded spec. A disagreement means the JSON was corrupted or edited.
func (e *Engine) verifyTopology() error {
	in := e.spec.InputSize
	for l := 0; l < e.spec.NumLayers(); l++ {
		out := e.spec.LayerSize(l)
		cfg := e.net.GetLayer(0, l, 0)
		if cfg.InputHeight != in || cfg.OutputHeight != out {
			return errors.Errorf("engine %q layer %d is %dx%d, but the recorded spec %s implies %dx%d",
				Name, l, cfg.InputHeight, cfg.OutputHeight, e.spec, in, out)
		}
		in = out
	}
	return nil
}
