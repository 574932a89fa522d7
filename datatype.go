// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package autoencoder

//go:generate go tool enumer -type=DataType -trimprefix=Type -transform=snake -values -text -json -output=gen_datatype_enumer.go datatype.go

// DataType is the external form of the data an AutoEncoder handles. It is
// fixed at construction, except that training on string samples upgrades a
// TypeNumber instance to TypeString once, before anything was trained.
//
// The zero value is TypeNumber.
type DataType int

const (
	// TypeNumber data are numeric vectors of length DecodedSize, with values
	// in the range the engine's output activation can produce.
	TypeNumber DataType = iota

	// TypeBoolean data are boolean vectors of length DecodedSize. Decoding
	// thresholds the reconstruction at 0.5.
	TypeBoolean

	// TypeString data are words of up to DecodedSize characters, converted
	// to bit vectors by the bitcodec package. Sizes scale by a factor of 8.
	TypeString
)

// dataTypeOf reports the DataType implied by a training set's Go type. The
// boolean result is false for types that cannot be trained on.
func dataTypeOf(data any) (DataType, bool) {
	switch data.(type) {
	case []string:
		return TypeString, true
	case [][]bool:
		return TypeBoolean, true
	case [][]float32, [][]float64:
		return TypeNumber, true
	}
	return TypeNumber, false
}
