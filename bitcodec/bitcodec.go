// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package bitcodec converts between text words and flat bit vectors, so that
// networks operating on numeric vectors can be trained on string data.
//
// Each character maps to 8 vector entries (its bits, least-significant
// first), each entry 0 or 1. Words are right-padded with spaces to a fixed
// width, and the inverse conversion trims that padding back off.
//
// Only 8-bit characters are supported (ASCII / Latin-1); multi-byte text is
// out of scope.
package bitcodec

import (
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// BitsPerChar is the number of vector entries used per character.
const BitsPerChar = 8

// PadChar is the character used to right-pad words to their fixed width.
const PadChar = ' '

// WordToVector converts word to a flat bit vector of length
// wordLength*BitsPerChar.
//
// The word is right-padded with PadChar to wordLength characters. Each
// character contributes its 8 bits, least-significant first, as 0/1 entries.
// A word longer than wordLength is an error.
func WordToVector[F constraints.Float](word string, wordLength int) ([]F, error) {
	if len(word) > wordLength {
		return nil, errors.Errorf("word %q has %d characters, longer than the configured width %d",
			word, len(word), wordLength)
	}
	vector := make([]F, 0, wordLength*BitsPerChar)
	for ii := 0; ii < wordLength; ii++ {
		c := byte(PadChar)
		if ii < len(word) {
			c = word[ii]
		}
		for bit := 0; bit < BitsPerChar; bit++ {
			vector = append(vector, F((c>>bit)&1))
		}
	}
	return vector, nil
}

// VectorToWord is the inverse of WordToVector: it consumes the vector in
// groups of 8 entries, rounds each entry to the nearest bit (entries are
// usually network predictions and may be fractional), rebuilds one character
// per group, least-significant bit first, and trims the trailing PadChar
// padding.
//
// Only trailing PadChar characters are trimmed, never other whitespace, so a
// reconstructed word that legitimately ends in a tab or newline survives
// intact.
func VectorToWord[F constraints.Float](vector []F) (string, error) {
	if len(vector)%BitsPerChar != 0 {
		return "", errors.Errorf("vector length %d is not a multiple of %d", len(vector), BitsPerChar)
	}
	var sb strings.Builder
	sb.Grow(len(vector) / BitsPerChar)
	for ii := 0; ii < len(vector); ii += BitsPerChar {
		var c byte
		for bit := 0; bit < BitsPerChar; bit++ {
			if vector[ii+bit] >= 0.5 {
				c |= 1 << bit
			}
		}
		sb.WriteByte(c)
	}
	return strings.TrimRight(sb.String(), string(PadChar)), nil
}
