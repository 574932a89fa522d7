// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package engines defines the interface a feed-forward network engine needs
// to implement to be driven by the autoencoder, and a registry of named
// engine constructors.
//
// The autoencoder never computes gradients or activations itself: forward
// inference, supervised training and weight storage all live behind the
// Engine interface. Engines register themselves with Register, usually in
// their package's init, and are selected by a configuration string of the
// form "<engine_name>:<engine_config>".
package engines

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gomlx/models/polymorphicjson"
	"github.com/pkg/errors"
)

// InterfaceName is the polymorphicjson discriminator shared by all Engine
// implementations.
const InterfaceName = "engines.Engine"

// Spec describes a feed-forward topology: input width, hidden layer widths
// in order, and output width.
type Spec struct {
	InputSize    int   `json:"input_size"`
	OutputSize   int   `json:"output_size"`
	HiddenLayers []int `json:"hidden_layers"`
}

// NumLayers returns the number of computed layers: the hidden layers plus
// the output layer. The input layer holds no weights and is not counted.
func (s Spec) NumLayers() int {
	return len(s.HiddenLayers) + 1
}

// LayerSize returns the width of computed layer i, following the NumLayers
// indexing: hidden layers first, the output layer last.
func (s Spec) LayerSize(i int) int {
	if i < len(s.HiddenLayers) {
		return s.HiddenLayers[i]
	}
	return s.OutputSize
}

// Equal reports whether two specs describe the same topology.
func (s Spec) Equal(other Spec) bool {
	return s.InputSize == other.InputSize &&
		s.OutputSize == other.OutputSize &&
		slices.Equal(s.HiddenLayers, other.HiddenLayers)
}

// Validate returns an error if any of the widths is not positive.
func (s Spec) Validate() error {
	if s.InputSize <= 0 || s.OutputSize <= 0 {
		return errors.Errorf("engine spec input/output sizes must be positive, got %s", s)
	}
	for _, size := range s.HiddenLayers {
		if size <= 0 {
			return errors.Errorf("engine spec hidden layer sizes must be positive, got %s", s)
		}
	}
	return nil
}

// String implements fmt.Stringer.
func (s Spec) String() string {
	parts := make([]string, 0, len(s.HiddenLayers))
	for _, size := range s.HiddenLayers {
		parts = append(parts, fmt.Sprintf("%d", size))
	}
	return fmt.Sprintf("%dx[%s]x%d", s.InputSize, strings.Join(parts, ","), s.OutputSize)
}

// Engine is an opaque feed-forward network: configurable topology, forward
// inference, supervised training, and JSON (de)serialization.
//
// Implementations serialize through encoding/json and carry the
// polymorphicjson discriminator tags, so an Engine value can be embedded
// polymorphically in a parent struct (the autoencoder snapshot does this).
type Engine interface {
	polymorphicjson.JSONIdentifiable

	// Name returns the short name of the engine. E.g.: "loom".
	Name() string

	// Spec returns the topology the engine was built with.
	Spec() Spec

	// Run performs forward inference, returning the output layer
	// activation. The input length must match Spec().InputSize.
	Run(input []float32) ([]float32, error)

	// LayerActivation returns the activation of computed layer `layer` as
	// recorded by the last Run call, following the Spec.NumLayers
	// indexing. So layer==Spec().NumLayers()-1 is Run's own result, and an
	// inner layer gives access to intermediate representations such as an
	// autoencoder's bottleneck.
	LayerActivation(layer int) ([]float32, error)

	// Train fits the engine's weights to the given samples, mutating the
	// engine in place. How options beyond Iterations, ErrorThresh and
	// LearningRate are honored is engine-specific.
	Train(data []Sample, opts *TrainOptions) (*TrainStats, error)
}

// Constructor builds an Engine with the given topology from an
// engine-specific config string (optionally empty).
type Constructor func(spec Spec, config string) (Engine, error)

var (
	registeredConstructors = make(map[string]Constructor)
	firstRegistered        string
)

// Register an engine with the given name and its constructor.
//
// The first registered engine becomes the default one. To be safe, call
// Register during initialization of a package.
func Register(name string, constructor Constructor) {
	if len(registeredConstructors) == 0 {
		firstRegistered = name
	}
	registeredConstructors[name] = constructor
}

// DefaultConfig is the engine configuration used by New if not empty.
//
// See NewWithConfig for the format of the configuration string.
var DefaultConfig string

// New returns an engine with the given topology, built from the default
// configuration: DefaultConfig if set, otherwise the first registered
// engine with an empty config.
func New(spec Spec) (Engine, error) {
	return NewWithConfig(spec, DefaultConfig)
}

// NewWithConfig builds an engine from a configuration string formatted as
// "<engine_name>:<engine_config>".
//
// "<engine_name>" is the name of a registered engine (e.g.: "loom") and
// "<engine_config>" is engine-specific (e.g.: for the loom engine, the
// hidden activation to use). A bare "<engine_name>" without a colon selects
// that engine with an empty config, and an empty string selects the first
// registered engine.
func NewWithConfig(spec Spec, config string) (Engine, error) {
	if len(registeredConstructors) == 0 {
		exceptions.Panicf(`no registered engines for the autoencoder -- maybe import the default one with import _ "github.com/gomlx/autoencoder/engines/loom"?`)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	name := config
	engineConfig := ""
	if idx := strings.Index(config, ":"); idx != -1 {
		name = config[:idx]
		engineConfig = config[idx+1:]
	}
	if name == "" {
		name = firstRegistered
	}
	constructor, found := registeredConstructors[name]
	if !found {
		return nil, errors.Errorf("can't find engine %q for configuration %q given", name, config)
	}
	return constructor(spec, engineConfig)
}
