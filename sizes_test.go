// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package autoencoder_test

import (
	"testing"

	"github.com/gomlx/autoencoder"
	"github.com/gomlx/autoencoder/engines"
	_ "github.com/gomlx/autoencoder/engines/enginetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizeArithmetic(t *testing.T) {
	ae, err := autoencoder.New(10, 2).Engine("test").Done()
	require.NoError(t, err)
	assert.Equal(t, 10, ae.DecodedSize())
	assert.Equal(t, 2, ae.EncodedSize())
	assert.Equal(t, 10, ae.EffectiveDecodedSize())
	assert.Equal(t, 2, ae.EffectiveEncodedSize())
	assert.Equal(t, 6, ae.TranscodedSize())

	ae, err = autoencoder.New(10, 2).DataType(autoencoder.TypeString).Engine("test").Done()
	require.NoError(t, err)
	assert.Equal(t, 80, ae.EffectiveDecodedSize())
	assert.Equal(t, 16, ae.EffectiveEncodedSize())
	assert.Equal(t, 48, ae.TranscodedSize())
	assert.Equal(t, 10, ae.WordSize())
}

func TestTranscodedSizeRounds(t *testing.T) {
	// (5+2)/2 = 3.5 rounds up.
	ae, err := autoencoder.New(5, 2).Engine("test").Done()
	require.NoError(t, err)
	assert.Equal(t, 4, ae.TranscodedSize())
}

func TestEngineTopology(t *testing.T) {
	ae, err := autoencoder.New(10, 2).DataType(autoencoder.TypeString).Engine("test").Done()
	require.NoError(t, err)
	wantEncoder := engines.Spec{InputSize: 80, OutputSize: 80, HiddenLayers: []int{48, 16, 48}}
	assert.True(t, ae.Encoder().Spec().Equal(wantEncoder),
		"encoder is %s, want %s", ae.Encoder().Spec(), wantEncoder)
	wantDecoder := engines.Spec{InputSize: 16, OutputSize: 80, HiddenLayers: []int{48}}
	assert.True(t, ae.Decoder().Spec().Equal(wantDecoder),
		"decoder is %s, want %s", ae.Decoder().Spec(), wantDecoder)
}

func TestConfigErrors(t *testing.T) {
	_, err := autoencoder.New(0, 2).Engine("test").Done()
	require.Error(t, err)
	_, err = autoencoder.New(10, -1).Engine("test").Done()
	require.Error(t, err)
	_, err = autoencoder.New(10, 2).DataType(autoencoder.DataType(99)).Engine("test").Done()
	require.ErrorContains(t, err, "invalid data type")
	_, err = autoencoder.New(10, 2).Engine("no-such-engine").Done()
	require.Error(t, err)
}
