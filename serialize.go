// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package autoencoder

import (
	"encoding/json"

	"github.com/gomlx/autoencoder/engines"
	"github.com/gomlx/gomlx/models/polymorphicjson"
	"github.com/pkg/errors"
)

// snapshotJSON is the persisted layout. The engines serialize themselves
// polymorphically: each snapshot records which engine produced it, and
// Parse restores that engine as long as its package is imported.
type snapshotJSON struct {
	DecodedDataSize int                                     `json:"decodedDataSize"`
	EncodedDataSize int                                     `json:"encodedDataSize"`
	DataType        DataType                                `json:"dataType"`
	Encoder         polymorphicjson.Wrapper[engines.Engine] `json:"encoder"`
	Decoder         polymorphicjson.Wrapper[engines.Engine] `json:"decoder"`
}

// MarshalJSON implements json.Marshaler. The layout is
// {decodedDataSize, encodedDataSize, dataType, encoder, decoder}, with both
// networks in their engine-specific form, weights included.
func (ae *AutoEncoder) MarshalJSON() ([]byte, error) {
	return json.Marshal(&snapshotJSON{
		DecodedDataSize: ae.decodedSize,
		EncodedDataSize: ae.encodedSize,
		DataType:        ae.dtype,
		Encoder:         polymorphicjson.Wrap[engines.Engine](ae.encoder),
		Decoder:         polymorphicjson.Wrap[engines.Engine](ae.decoder),
	})
}

// UnmarshalJSON implements json.Unmarshaler, restoring the sizes, the data
// type and both engine networks. The recorded sizes must agree with the
// topology of the loaded networks, a disagreement means the snapshot was
// corrupted or edited and is reported as ErrSizeMismatch.
func (ae *AutoEncoder) UnmarshalJSON(b []byte) error {
	var snapshot snapshotJSON
	if err := json.Unmarshal(b, &snapshot); err != nil {
		return errors.Wrap(err, "parsing autoencoder JSON")
	}
	if snapshot.DecodedDataSize <= 0 || snapshot.EncodedDataSize <= 0 {
		return errors.Wrapf(ErrSizeMismatch,
			"recorded sizes must be positive, got decoded=%d, encoded=%d",
			snapshot.DecodedDataSize, snapshot.EncodedDataSize)
	}
	if snapshot.Encoder.Value == nil || snapshot.Decoder.Value == nil {
		return errors.New("autoencoder JSON is missing its engine networks")
	}
	restored := &AutoEncoder{
		decodedSize:  snapshot.DecodedDataSize,
		encodedSize:  snapshot.EncodedDataSize,
		dtype:        snapshot.DataType,
		engineConfig: snapshot.Encoder.Value.Name(),
		encoder:      snapshot.Encoder.Value,
		decoder:      snapshot.Decoder.Value,
		trained:      true,
	}
	if err := restored.verifySpecs(); err != nil {
		return err
	}
	*ae = *restored
	return nil
}

// verifySpecs checks that the engine topologies match what the size fields
// imply, the invariant construction guarantees for fresh instances.
func (ae *AutoEncoder) verifySpecs() error {
	if want, got := ae.encoderSpec(), ae.encoder.Spec(); !got.Equal(want) {
		return errors.Wrapf(ErrSizeMismatch,
			"recorded sizes (decoded=%d, encoded=%d, dataType=%s) imply an encoder %s, the loaded engine is %s",
			ae.decodedSize, ae.encodedSize, ae.dtype, want, got)
	}
	if want, got := ae.decoderSpec(), ae.decoder.Spec(); !got.Equal(want) {
		return errors.Wrapf(ErrSizeMismatch,
			"recorded sizes (decoded=%d, encoded=%d, dataType=%s) imply a decoder %s, the loaded engine is %s",
			ae.decodedSize, ae.encodedSize, ae.dtype, want, got)
	}
	return nil
}

// Stringify returns the autoencoder serialized to a JSON string.
func (ae *AutoEncoder) Stringify() (string, error) {
	b, err := json.Marshal(ae)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Parse reconstructs an AutoEncoder from the JSON produced by MarshalJSON.
// The engine package that produced the snapshot must be imported: importing
// it registers the constructor that deserializes its networks.
func Parse(b []byte) (*AutoEncoder, error) {
	ae := &AutoEncoder{}
	if err := json.Unmarshal(b, ae); err != nil {
		return nil, err
	}
	return ae, nil
}

// ParseString is Parse for a JSON string, the inverse of Stringify.
func ParseString(s string) (*AutoEncoder, error) {
	return Parse([]byte(s))
}
