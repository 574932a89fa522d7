// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package autoencoder_test

import (
	"strings"
	"testing"

	"github.com/gomlx/autoencoder"
	"github.com/gomlx/autoencoder/engines"
	_ "github.com/gomlx/autoencoder/engines/enginetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trainedTestAE(t *testing.T) *autoencoder.AutoEncoder {
	ae, err := autoencoder.New(6, 2).Engine("test").Done()
	require.NoError(t, err)
	_, err = ae.Train(trainSet, &engines.TrainOptions{Iterations: 4})
	require.NoError(t, err)
	return ae
}

func TestStringifyParseRoundTrip(t *testing.T) {
	ae := trainedTestAE(t)
	serialized, err := ae.Stringify()
	require.NoError(t, err)
	assert.Contains(t, serialized, `"decodedDataSize":6`)
	assert.Contains(t, serialized, `"encodedDataSize":2`)
	assert.Contains(t, serialized, `"dataType":"number"`)
	assert.Contains(t, serialized, `"json_type":"test"`)

	restored, err := autoencoder.ParseString(serialized)
	require.NoError(t, err)
	assert.Equal(t, 6, restored.DecodedSize())
	assert.Equal(t, 2, restored.EncodedSize())
	assert.Equal(t, autoencoder.TypeNumber, restored.DataType())

	// The restored networks must behave exactly like the originals: the
	// weights survive the JSON round trip bit for bit.
	wantLatent, err := ae.Encode(trainSet[0])
	require.NoError(t, err)
	gotLatent, err := restored.Encode(trainSet[0])
	require.NoError(t, err)
	assert.Equal(t, wantLatent, gotLatent)

	want, err := ae.DecodeFloats(wantLatent)
	require.NoError(t, err)
	got, err := restored.DecodeFloats(gotLatent)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStringifyParseStringDataType(t *testing.T) {
	ae, err := autoencoder.New(4, 2).DataType(autoencoder.TypeString).Engine("test").Done()
	require.NoError(t, err)
	serialized, err := ae.Stringify()
	require.NoError(t, err)
	assert.Contains(t, serialized, `"dataType":"string"`)

	restored, err := autoencoder.ParseString(serialized)
	require.NoError(t, err)
	assert.Equal(t, autoencoder.TypeString, restored.DataType())
	assert.Equal(t, 32, restored.EffectiveDecodedSize())
	encoded, err := restored.Encode("cat")
	require.NoError(t, err)
	assert.Len(t, encoded, 16)
}

func TestParseSizeMismatch(t *testing.T) {
	ae := trainedTestAE(t)
	serialized, err := ae.Stringify()
	require.NoError(t, err)

	edited := strings.Replace(serialized, `"decodedDataSize":6`, `"decodedDataSize":8`, 1)
	require.NotEqual(t, serialized, edited)
	_, err = autoencoder.ParseString(edited)
	assert.ErrorIs(t, err, autoencoder.ErrSizeMismatch)

	edited = strings.Replace(serialized, `"dataType":"number"`, `"dataType":"string"`, 1)
	require.NotEqual(t, serialized, edited)
	_, err = autoencoder.ParseString(edited)
	assert.ErrorIs(t, err, autoencoder.ErrSizeMismatch)
}

func TestParseRejectsBadJSON(t *testing.T) {
	_, err := autoencoder.ParseString("not json at all")
	require.Error(t, err)

	_, err = autoencoder.ParseString(`{}`)
	assert.ErrorIs(t, err, autoencoder.ErrSizeMismatch)

	_, err = autoencoder.ParseString(`{"decodedDataSize":6,"encodedDataSize":2,"dataType":"number"}`)
	require.ErrorContains(t, err, "missing its engine networks")
}

func TestParseUnknownDataType(t *testing.T) {
	ae := trainedTestAE(t)
	serialized, err := ae.Stringify()
	require.NoError(t, err)
	edited := strings.Replace(serialized, `"dataType":"number"`, `"dataType":"complex"`, 1)
	_, err = autoencoder.ParseString(edited)
	require.ErrorContains(t, err, "does not belong to DataType values")
}

func TestParseUnknownEngine(t *testing.T) {
	ae := trainedTestAE(t)
	serialized, err := ae.Stringify()
	require.NoError(t, err)
	edited := strings.ReplaceAll(serialized, `"json_type":"test"`, `"json_type":"bogus"`)
	_, err = autoencoder.ParseString(edited)
	require.ErrorContains(t, err, "unknown concrete type")
}
