// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package autoencoder_test

import (
	"testing"

	"github.com/gomlx/autoencoder"
	"github.com/gomlx/autoencoder/engines"
	"github.com/gomlx/autoencoder/engines/enginetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var trainSet = [][]float32{
	{1, 0, 1, 0, 1, 0},
	{0, 1, 1, 0, 0, 1},
}

func newTestAE(t *testing.T) *autoencoder.AutoEncoder {
	ae, err := autoencoder.New(6, 2).Engine("test").Done()
	require.NoError(t, err)
	return ae
}

func recorded(t *testing.T, e engines.Engine) *enginetest.Engine {
	recorder, ok := e.(*enginetest.Engine)
	require.True(t, ok, "want a %q engine, got %T", enginetest.Name, e)
	return recorder
}

func TestTrainProtocolOrder(t *testing.T) {
	ae := newTestAE(t)
	opts := &engines.TrainOptions{Iterations: 10, LearningRate: 0.5, ErrorThresh: 1e-9}
	result, err := ae.Train(trainSet, opts)
	require.NoError(t, err)
	require.NotNil(t, result.Encoder)
	require.NotNil(t, result.Decoder)
	assert.Equal(t, 10, result.Encoder.Iterations)

	encoder := recorded(t, ae.Encoder())
	decoder := recorded(t, ae.Decoder())
	require.Len(t, encoder.TrainCalls, 1)
	require.Len(t, decoder.TrainCalls, 1)
	assert.Less(t, encoder.TrainCalls[0].Seq, decoder.TrainCalls[0].Seq,
		"the encoder must be trained before the decoder")

	// Phase one trains the encoder as an identity function.
	identity := encoder.TrainCalls[0].Data
	require.Len(t, identity, len(trainSet))
	for ii, sample := range identity {
		assert.Equal(t, trainSet[ii], sample.Input)
		assert.Equal(t, sample.Input, sample.Target)
	}

	// Phase two pairs each sample's latent code with the sample itself.
	pairs := decoder.TrainCalls[0].Data
	require.Len(t, pairs, len(trainSet))
	for ii, pair := range pairs {
		assert.Len(t, pair.Input, 2)
		assert.Equal(t, trainSet[ii], pair.Target)
	}

	// The latent codes were produced by the already trained encoder, so
	// encoding again now must reproduce them exactly.
	latent, err := ae.Encode(trainSet[0])
	require.NoError(t, err)
	assert.Equal(t, pairs[0].Input, latent)

	// Both phases get the same options.
	assert.Equal(t, 10, encoder.TrainCalls[0].Opts.Iterations)
	assert.Equal(t, 10, decoder.TrainCalls[0].Opts.Iterations)
	assert.Equal(t, 0.5, decoder.TrainCalls[0].Opts.LearningRate)
}

func TestTrainRegeneratesDecoderPairs(t *testing.T) {
	ae := newTestAE(t)
	opts := &engines.TrainOptions{Iterations: 10, LearningRate: 0.5, ErrorThresh: 1e-9}
	_, err := ae.Train(trainSet, opts)
	require.NoError(t, err)
	_, err = ae.Train(trainSet, opts)
	require.NoError(t, err)

	encoder := recorded(t, ae.Encoder())
	decoder := recorded(t, ae.Decoder())
	require.Len(t, encoder.TrainCalls, 2)
	require.Len(t, decoder.TrainCalls, 2)
	assert.Less(t, encoder.TrainCalls[0].Seq, decoder.TrainCalls[0].Seq)
	assert.Less(t, decoder.TrainCalls[0].Seq, encoder.TrainCalls[1].Seq)
	assert.Less(t, encoder.TrainCalls[1].Seq, decoder.TrainCalls[1].Seq)

	// The second call re-encodes with the further trained encoder instead of
	// reusing the first call's latent codes.
	assert.NotEqual(t, decoder.TrainCalls[0].Data[0].Input, decoder.TrainCalls[1].Data[0].Input)
	assert.Equal(t, decoder.TrainCalls[0].Data[0].Target, decoder.TrainCalls[1].Data[0].Target)
}

func TestTrainInfersString(t *testing.T) {
	ae, err := autoencoder.New(10, 2).Engine("test").Done()
	require.NoError(t, err)
	assert.Equal(t, autoencoder.TypeNumber, ae.DataType())

	_, err = ae.Train([]string{"cat", "dog"}, &engines.TrainOptions{Iterations: 4})
	require.NoError(t, err)
	assert.Equal(t, autoencoder.TypeString, ae.DataType())
	assert.Equal(t, 80, ae.EffectiveDecodedSize())

	// The networks were rebuilt at the string-scaled sizes before training.
	encoder := recorded(t, ae.Encoder())
	require.Len(t, encoder.TrainCalls, 1)
	require.Len(t, encoder.TrainCalls[0].Data, 2)
	assert.Len(t, encoder.TrainCalls[0].Data[0].Input, 80)

	encoded, err := ae.Encode("cat")
	require.NoError(t, err)
	assert.Len(t, encoded, 16)
	ok, err := ae.Validate("cat")
	require.NoError(t, err)
	_ = ok // The test engine does not learn, only the call must succeed.
}

func TestTrainRefusesLateInference(t *testing.T) {
	ae := newTestAE(t)
	_, err := ae.Train(trainSet, &engines.TrainOptions{Iterations: 4})
	require.NoError(t, err)
	_, err = ae.Train([]string{"hi"}, &engines.TrainOptions{Iterations: 4})
	assert.ErrorIs(t, err, autoencoder.ErrSizeMismatch)
}

func TestTrainVectorsOnStringInstance(t *testing.T) {
	ae, err := autoencoder.New(1, 1).DataType(autoencoder.TypeString).Engine("test").Done()
	require.NoError(t, err)
	// Raw vectors of the effective size train fine on a string instance.
	_, err = ae.Train([][]float32{make([]float32, 8)}, &engines.TrainOptions{Iterations: 4})
	require.NoError(t, err)
}

func TestTrainRejectsUnsupported(t *testing.T) {
	ae := newTestAE(t)
	_, err := ae.Train(42, nil)
	assert.ErrorIs(t, err, autoencoder.ErrUnsupportedOperation)
	_, err = ae.Train("cat", nil)
	assert.ErrorIs(t, err, autoencoder.ErrUnsupportedOperation)
	_, err = ae.Train([]int{1, 2}, nil)
	assert.ErrorIs(t, err, autoencoder.ErrUnsupportedOperation)
}

func TestTrainEmptySet(t *testing.T) {
	ae := newTestAE(t)
	_, err := ae.Train([][]float32{}, nil)
	require.ErrorContains(t, err, "empty data set")
}

func TestTrainBadSample(t *testing.T) {
	ae := newTestAE(t)
	_, err := ae.Train([][]float32{{1, 0}}, nil)
	assert.ErrorIs(t, err, autoencoder.ErrInputSize)
	assert.ErrorContains(t, err, "sample #0")

	words, err := autoencoder.New(4, 2).DataType(autoencoder.TypeString).Engine("test").Done()
	require.NoError(t, err)
	_, err = words.Train([]string{"cat", "hello"}, nil)
	assert.ErrorIs(t, err, autoencoder.ErrInputSize)
	assert.ErrorContains(t, err, "sample #1")
}

func TestTrainCallback(t *testing.T) {
	ae := newTestAE(t)
	var calls int
	var last engines.TrainStats
	_, err := ae.Train(trainSet, &engines.TrainOptions{
		Iterations:     3,
		ErrorThresh:    1e-9,
		CallbackPeriod: 1,
		Callback: func(stats engines.TrainStats) {
			calls++
			last = stats
		},
	})
	require.NoError(t, err)
	// Once per iteration plus a final one, for each of the two phases.
	assert.Equal(t, 8, calls)
	assert.Equal(t, 3, last.Iterations)
}
