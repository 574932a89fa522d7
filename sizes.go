// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package autoencoder

import (
	"math"

	"github.com/gomlx/autoencoder/bitcodec"
)

// Layer size arithmetic. All widths derive from the two configured sizes
// and the data type: string data expands to 8 bit-slots per character, so
// its effective sizes scale by bitcodec.BitsPerChar. These are pure
// functions recomputed on demand, never cached, since the data type can
// still change until the first training run.

func effectiveSize(size int, dtype DataType) int {
	if dtype == TypeString {
		return size * bitcodec.BitsPerChar
	}
	return size
}

func transcodedSize(decodedSize, encodedSize int, dtype DataType) int {
	decoded := effectiveSize(decodedSize, dtype)
	encoded := effectiveSize(encodedSize, dtype)
	return int(math.Round(float64(decoded+encoded) / 2))
}

// EffectiveDecodedSize is the width of the vectors the autoencoder actually
// feeds its networks: DecodedSize, scaled by 8 for string data.
func (ae *AutoEncoder) EffectiveDecodedSize() int {
	return effectiveSize(ae.decodedSize, ae.dtype)
}

// EffectiveEncodedSize is the length of the latent vectors Encode returns:
// EncodedSize, scaled by 8 for string data.
func (ae *AutoEncoder) EffectiveEncodedSize() int {
	return effectiveSize(ae.encodedSize, ae.dtype)
}

// TranscodedSize is the derived hidden layer width, the rounded midpoint of
// the effective decoded and encoded sizes.
func (ae *AutoEncoder) TranscodedSize() int {
	return transcodedSize(ae.decodedSize, ae.encodedSize, ae.dtype)
}

// WordSize is the padded word length for string data, in characters.
func (ae *AutoEncoder) WordSize() int {
	return ae.EffectiveDecodedSize() / bitcodec.BitsPerChar
}
