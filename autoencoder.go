// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package autoencoder implements a minimal feed-forward autoencoder for
// numeric vectors, boolean vectors and short words, on top of pluggable
// neural network engines.
//
// An AutoEncoder owns two networks. The encoder has input and output width
// EffectiveDecodedSize and hidden layers [transcoded, encoded, transcoded]:
// it is trained as an identity function, and the activation of its middle
// hidden layer, the bottleneck, serves as the latent code. The decoder maps
// latent vectors back to reconstructions through a single transcoded-width
// hidden layer. String data is converted to bit vectors by the bitcodec
// package, so its layer widths scale by 8.
//
// Construction is cheap and never trains:
//
//	ae, err := autoencoder.New(10, 2).
//		DataType(autoencoder.TypeString).
//		Done()
//	if err != nil { ... }
//	_, err = ae.Train([]string{"cat", "dog", "bird"}, nil)
//	if err != nil { ... }
//	ok, err := ae.Validate("cat")
//
// Engines register themselves on import. The default is loom:
//
//	import _ "github.com/gomlx/autoencoder/engines/loom"
package autoencoder

import (
	"github.com/gomlx/autoencoder/bitcodec"
	"github.com/gomlx/autoencoder/engines"
	"github.com/gomlx/gomlx/pkg/support/xslices"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// latentLayer is the index of the encoder's bottleneck among its computed
// layers: hidden layers [transcoded, encoded, transcoded] put the latent
// code at index 1.
const latentLayer = 1

// AutoEncoder compresses data of a fixed logical size into latent vectors
// of a smaller logical size, and reconstructs it back. It owns its two
// engine networks for its whole lifetime: Train mutates them in place,
// nothing ever re-creates them.
//
// Not safe for concurrent use.
type AutoEncoder struct {
	decodedSize  int
	encodedSize  int
	dtype        DataType
	engineConfig string

	encoder engines.Engine
	decoder engines.Engine

	// trained is set by the first Train call. Once set, the data type can
	// no longer be inferred to string, that would resize the networks.
	trained bool
}

// Config is created with New and configures an AutoEncoder to be built.
type Config struct {
	decodedSize  int
	encodedSize  int
	dtype        DataType
	engineConfig string

	err error
}

// New starts the configuration of an AutoEncoder that compresses data of
// logical size decodedSize into latent vectors of logical size encodedSize,
// conventionally smaller to force compression. Call Done to build it:
//
//	ae, err := autoencoder.New(10, 2).Done()
//
// The data type defaults to TypeNumber and the engine to the first
// registered one; change them with DataType and Engine.
func New(decodedSize, encodedSize int) *Config {
	c := &Config{
		decodedSize: decodedSize,
		encodedSize: encodedSize,
	}
	if decodedSize <= 0 || encodedSize <= 0 {
		c.err = errors.Errorf("autoencoder sizes must be positive, got decoded=%d, encoded=%d",
			decodedSize, encodedSize)
	}
	return c
}

// DataType sets the external form of the data.
func (c *Config) DataType(dtype DataType) *Config {
	if c.err != nil {
		return c
	}
	if !dtype.IsADataType() {
		c.err = errors.Errorf("invalid data type %d, valid values are %v", int(dtype), DataTypeValues())
		return c
	}
	c.dtype = dtype
	return c
}

// Engine selects the network engine for both networks, in the form "name"
// or "name:config", like "loom" or "loom:tanh".
func (c *Config) Engine(config string) *Config {
	if c.err != nil {
		return c
	}
	c.engineConfig = config
	return c
}

// Done builds the AutoEncoder. Both networks are created eagerly with
// engine-default random weights.
func (c *Config) Done() (*AutoEncoder, error) {
	if c.err != nil {
		return nil, c.err
	}
	ae := &AutoEncoder{
		decodedSize:  c.decodedSize,
		encodedSize:  c.encodedSize,
		dtype:        c.dtype,
		engineConfig: c.engineConfig,
	}
	if err := ae.buildEngines(); err != nil {
		return nil, err
	}
	return ae, nil
}

func (ae *AutoEncoder) encoderSpec() engines.Spec {
	decoded := ae.EffectiveDecodedSize()
	transcoded := ae.TranscodedSize()
	return engines.Spec{
		InputSize:    decoded,
		OutputSize:   decoded,
		HiddenLayers: []int{transcoded, ae.EffectiveEncodedSize(), transcoded},
	}
}

func (ae *AutoEncoder) decoderSpec() engines.Spec {
	return engines.Spec{
		InputSize:    ae.EffectiveEncodedSize(),
		OutputSize:   ae.EffectiveDecodedSize(),
		HiddenLayers: []int{ae.TranscodedSize()},
	}
}

func (ae *AutoEncoder) buildEngines() error {
	encoder, err := engines.NewWithConfig(ae.encoderSpec(), ae.engineConfig)
	if err != nil {
		return errors.WithMessage(err, "building the encoder network")
	}
	decoder, err := engines.NewWithConfig(ae.decoderSpec(), ae.engineConfig)
	if err != nil {
		return errors.WithMessage(err, "building the decoder network")
	}
	ae.encoder = encoder
	ae.decoder = decoder
	return nil
}

// DecodedSize returns the configured logical size of decoded data.
func (ae *AutoEncoder) DecodedSize() int { return ae.decodedSize }

// EncodedSize returns the configured logical size of the latent code.
func (ae *AutoEncoder) EncodedSize() int { return ae.encodedSize }

// DataType returns the current data type. It can still change from
// TypeNumber to TypeString on the first Train call, see Train.
func (ae *AutoEncoder) DataType() DataType { return ae.dtype }

// Encoder returns the identity-trained network whose bottleneck activation
// is the latent code.
func (ae *AutoEncoder) Encoder() engines.Engine { return ae.encoder }

// Decoder returns the network mapping latent vectors to reconstructions.
func (ae *AutoEncoder) Decoder() engines.Engine { return ae.decoder }

// toVector converts one sample to the vector form the networks consume.
func (ae *AutoEncoder) toVector(data any) ([]float32, error) {
	switch v := data.(type) {
	case string:
		return ae.wordVector(v)
	case []float32:
		return ae.vectorSized(v)
	case []float64:
		return ae.vectorSized(xslices.Map(v, func(x float64) float32 { return float32(x) }))
	case []bool:
		return ae.vectorSized(xslices.Map(v, func(b bool) float32 {
			if b {
				return 1
			}
			return 0
		}))
	}
	return nil, errors.Wrapf(ErrUnsupportedOperation,
		"can't encode %T data, want string, []float32, []float64 or []bool", data)
}

func (ae *AutoEncoder) wordVector(word string) ([]float32, error) {
	if ae.dtype != TypeString {
		return nil, errors.Wrapf(ErrUnsupportedOperation,
			"this autoencoder handles %s data, can't encode the string %q", ae.dtype, word)
	}
	if len(word) > ae.WordSize() {
		return nil, errors.Wrapf(ErrInputSize,
			"word %q has %d characters, the configured maximum is %d", word, len(word), ae.WordSize())
	}
	return bitcodec.WordToVector[float32](word, ae.WordSize())
}

func (ae *AutoEncoder) vectorSized(vector []float32) ([]float32, error) {
	if len(vector) != ae.EffectiveDecodedSize() {
		return nil, errors.Wrapf(ErrInputSize,
			"got a vector of length %d, want %d", len(vector), ae.EffectiveDecodedSize())
	}
	return vector, nil
}

// Encode converts data to its vector form, runs it through the encoder
// network and returns the bottleneck activation, the latent code of length
// EffectiveEncodedSize. Accepted types: string (TypeString instances only),
// []float32, []float64 and []bool, all of the effective decoded size.
func (ae *AutoEncoder) Encode(data any) ([]float32, error) {
	vector, err := ae.toVector(data)
	if err != nil {
		return nil, err
	}
	return ae.encodeVector(vector)
}

func (ae *AutoEncoder) encodeVector(vector []float32) ([]float32, error) {
	if _, err := ae.encoder.Run(vector); err != nil {
		return nil, errors.WithMessage(err, "encoder inference")
	}
	latent, err := ae.encoder.LayerActivation(latentLayer)
	if err != nil {
		return nil, errors.WithMessage(err, "reading the encoder bottleneck")
	}
	return latent, nil
}

// DecodeFloats runs a latent vector through the decoder network and returns
// the raw reconstruction vector, without any data type conversion.
func (ae *AutoEncoder) DecodeFloats(encoded []float32) ([]float32, error) {
	if len(encoded) != ae.EffectiveEncodedSize() {
		return nil, errors.Wrapf(ErrInputSize,
			"got a latent vector of length %d, want %d", len(encoded), ae.EffectiveEncodedSize())
	}
	vector, err := ae.decoder.Run(encoded)
	if err != nil {
		return nil, errors.WithMessage(err, "decoder inference")
	}
	return vector, nil
}

// Decode reconstructs data from a latent vector, in the shape matching the
// data type: []float32 for TypeNumber, []bool for TypeBoolean (thresholded
// at 0.5) and string for TypeString (bit-decoded, padding trimmed).
func (ae *AutoEncoder) Decode(encoded []float32) (any, error) {
	vector, err := ae.DecodeFloats(encoded)
	if err != nil {
		return nil, err
	}
	switch ae.dtype {
	case TypeBoolean:
		return thresholdBools(vector), nil
	case TypeString:
		word, err := bitcodec.VectorToWord(vector)
		if err != nil {
			return nil, errors.WithMessage(err, "decoding the reconstruction")
		}
		return word, nil
	}
	return vector, nil
}

// DecodeBools is Decode for TypeBoolean instances with concrete types.
func (ae *AutoEncoder) DecodeBools(encoded []float32) ([]bool, error) {
	if ae.dtype != TypeBoolean {
		return nil, errors.Wrapf(ErrUnsupportedOperation,
			"DecodeBools is only defined for %s data, this autoencoder handles %s", TypeBoolean, ae.dtype)
	}
	vector, err := ae.DecodeFloats(encoded)
	if err != nil {
		return nil, err
	}
	return thresholdBools(vector), nil
}

// DecodeWord is Decode for TypeString instances with concrete types.
func (ae *AutoEncoder) DecodeWord(encoded []float32) (string, error) {
	if ae.dtype != TypeString {
		return "", errors.Wrapf(ErrUnsupportedOperation,
			"DecodeWord is only defined for %s data, this autoencoder handles %s", TypeString, ae.dtype)
	}
	vector, err := ae.DecodeFloats(encoded)
	if err != nil {
		return "", err
	}
	return bitcodec.VectorToWord(vector)
}

func thresholdBools(vector []float32) []bool {
	return xslices.Map(vector, func(x float32) bool { return x >= 0.5 })
}

// Run is Decode(Encode(data)): the autoencoder's reconstruction of data.
func (ae *AutoEncoder) Run(data any) (any, error) {
	encoded, err := ae.Encode(data)
	if err != nil {
		return nil, err
	}
	return ae.Decode(encoded)
}

// RunWord is Run for TypeString instances with concrete types.
func (ae *AutoEncoder) RunWord(word string) (string, error) {
	encoded, err := ae.Encode(word)
	if err != nil {
		return "", err
	}
	return ae.DecodeWord(encoded)
}

// Validate reconstructs word and reports whether the reconstruction equals
// it exactly. It is only defined for TypeString instances, anything else
// returns ErrUnsupportedOperation rather than false.
func (ae *AutoEncoder) Validate(word string) (bool, error) {
	if ae.dtype != TypeString {
		return false, errors.Wrapf(ErrUnsupportedOperation,
			"Validate is only defined for %s data, this autoencoder handles %s", TypeString, ae.dtype)
	}
	reconstructed, err := ae.RunWord(word)
	if err != nil {
		return false, err
	}
	return reconstructed == word, nil
}

// ReconstructionError is the mean squared error between data's vector form
// and its reconstruction. Trained autoencoders reconstruct data resembling
// their training set with small errors, making this a cheap anomaly score.
func (ae *AutoEncoder) ReconstructionError(data any) (float64, error) {
	vector, err := ae.toVector(data)
	if err != nil {
		return 0, err
	}
	encoded, err := ae.encodeVector(vector)
	if err != nil {
		return 0, err
	}
	reconstruction, err := ae.DecodeFloats(encoded)
	if err != nil {
		return 0, err
	}
	return meanSquaredError(vector, reconstruction), nil
}

// LikelyAnomalous reports whether data's reconstruction error exceeds
// threshold. The threshold is domain-specific: calibrate it on held-out
// normal data, typically a small multiple of the training error.
func (ae *AutoEncoder) LikelyAnomalous(data any, threshold float64) (bool, error) {
	score, err := ae.ReconstructionError(data)
	if err != nil {
		return false, err
	}
	return score > threshold, nil
}

func meanSquaredError(want, got []float32) float64 {
	toFloat64 := func(x float32) float64 { return float64(x) }
	dist := floats.Distance(xslices.Map(want, toFloat64), xslices.Map(got, toFloat64), 2)
	return dist * dist / float64(len(want))
}
