// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package autoencoder

import (
	"github.com/gomlx/autoencoder/bitcodec"
	"github.com/gomlx/autoencoder/engines"
	"github.com/gomlx/gomlx/pkg/support/xslices"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// TrainResult aggregates the stats of the two training phases.
type TrainResult struct {
	Encoder *engines.TrainStats
	Decoder *engines.TrainStats
}

// String implements fmt.Stringer.
func (r *TrainResult) String() string {
	return "encoder: " + r.Encoder.String() + "; decoder: " + r.Decoder.String()
}

// Train runs the two-phase training protocol on data, which must be a
// []string, [][]bool, [][]float32 or [][]float64 of samples fitting the
// configured decoded size. A nil opts trains with the engine defaults.
//
// Phase one trains the encoder as an identity function, pairing each
// sample's vector with itself. Phase two re-encodes every sample with the
// freshly updated encoder and trains the decoder to map those latent
// vectors back to the sample vectors. The order matters: the decoder must
// learn the encoder's current latent space, so its pairs are regenerated
// from scratch on every call, never cached across calls.
//
// A TypeNumber instance that has never been trained upgrades itself to
// TypeString when given []string data, rebuilding its untrained networks
// with string-scaled sizes. After any training, the same situation is an
// ErrSizeMismatch. Engine training failures propagate unretried.
func (ae *AutoEncoder) Train(data any, opts *engines.TrainOptions) (*TrainResult, error) {
	if err := ae.inferDataType(data); err != nil {
		return nil, err
	}
	vectors, err := ae.trainingVectors(data)
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, errors.New("can't train on an empty data set")
	}

	identity := xslices.Map(vectors, func(v []float32) engines.Sample {
		return engines.Sample{Input: v, Target: v}
	})
	klog.V(1).Infof("training encoder %s on %d identity pairs", ae.encoder.Spec(), len(identity))
	encoderStats, err := ae.encoder.Train(identity, opts)
	if err != nil {
		return nil, errors.WithMessage(err, "encoder training")
	}
	ae.trained = true

	pairs := make([]engines.Sample, len(vectors))
	for ii, vector := range vectors {
		latent, err := ae.encodeVector(vector)
		if err != nil {
			return nil, errors.WithMessagef(err, "re-encoding sample #%d for the decoder", ii)
		}
		pairs[ii] = engines.Sample{Input: latent, Target: vector}
	}
	klog.V(1).Infof("training decoder %s on %d re-encoded pairs", ae.decoder.Spec(), len(pairs))
	decoderStats, err := ae.decoder.Train(pairs, opts)
	if err != nil {
		return nil, errors.WithMessage(err, "decoder training")
	}
	return &TrainResult{Encoder: encoderStats, Decoder: decoderStats}, nil
}

// inferDataType is the single point where the data type may change:
// []string data upgrades a never-trained instance to TypeString.
func (ae *AutoEncoder) inferDataType(data any) error {
	observed, ok := dataTypeOf(data)
	if !ok {
		return errors.Wrapf(ErrUnsupportedOperation,
			"can't train on %T data, want []string, [][]bool, [][]float32 or [][]float64", data)
	}
	if observed == TypeString && ae.dtype != TypeString {
		if ae.trained {
			return errors.Wrapf(ErrSizeMismatch,
				"string data would change the data type of an already trained %s autoencoder", ae.dtype)
		}
		klog.V(1).Infof("data type inferred as %s, rebuilding the untrained networks with sizes scaled by %d",
			TypeString, bitcodec.BitsPerChar)
		ae.dtype = TypeString
		return ae.buildEngines()
	}
	// Raw vector data remains acceptable on a TypeString instance, the
	// per-sample length checks catch any size disagreement.
	return nil
}

func (ae *AutoEncoder) trainingVectors(data any) ([][]float32, error) {
	var vectors [][]float32
	var err error
	switch set := data.(type) {
	case []string:
		vectors, err = convertSamples(set, ae.wordVector)
	case [][]float32:
		vectors, err = convertSamples(set, ae.vectorSized)
	case [][]float64:
		vectors, err = convertSamples(set, func(sample []float64) ([]float32, error) {
			return ae.vectorSized(xslices.Map(sample, func(x float64) float32 { return float32(x) }))
		})
	case [][]bool:
		vectors, err = convertSamples(set, func(sample []bool) ([]float32, error) {
			return ae.vectorSized(xslices.Map(sample, func(b bool) float32 {
				if b {
					return 1
				}
				return 0
			}))
		})
	default:
		return nil, errors.Wrapf(ErrUnsupportedOperation, "can't train on %T data", data)
	}
	return vectors, err
}

func convertSamples[S any](set []S, convert func(S) ([]float32, error)) ([][]float32, error) {
	vectors := make([][]float32, len(set))
	for ii, sample := range set {
		vector, err := convert(sample)
		if err != nil {
			return nil, errors.WithMessagef(err, "sample #%d", ii)
		}
		vectors[ii] = vector
	}
	return vectors, nil
}
