// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package autoencoder

import "github.com/pkg/errors"

// Sentinel errors, matched with errors.Is. Engine training failures are not
// wrapped in a sentinel: they propagate from the engine with added context.
var (
	// ErrUnsupportedOperation is returned by operations that are only
	// defined for some data types, like Validate on a non-string
	// autoencoder, and by polymorphic entry points given a Go type they
	// don't handle.
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrSizeMismatch is returned when a serialized snapshot's recorded
	// sizes disagree with the topology of the engines it carries, or when
	// training data implies a data type change after the engines were
	// already trained.
	ErrSizeMismatch = errors.New("size mismatch")

	// ErrInputSize is returned when data doesn't fit the configured sizes:
	// a word longer than the padded word length, or a vector of the wrong
	// length.
	ErrInputSize = errors.New("input size violation")
)
