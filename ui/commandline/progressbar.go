// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package commandline has terminal helpers for training autoencoders, the
// main one being a progress bar reporting iterations and training error.
package commandline

import (
	"fmt"
	"io"
	"os"

	"github.com/gomlx/autoencoder/engines"
	"github.com/schollz/progressbar/v3"
)

// ProgressbarStyle to use. Defaults to the ASCII version.
// Consider "progressbar.ThemeUnicode" for a prettier version.
// But it requires some of the graphical symbols to be supported.
var ProgressbarStyle = progressbar.ThemeASCII

// Output is where progress bars are drawn. Defaults to stdout.
var Output io.Writer = os.Stdout

// AttachProgressBar returns a copy of opts (nil is valid) whose Callback
// draws a terminal progress bar, updated every CallbackPeriod iterations
// with the current training error. A Callback already present in opts keeps
// being invoked after each bar update.
//
// The bar tracks the Iterations budget: training that stops early on
// ErrorThresh leaves it short of 100%. An AutoEncoder's Train drives two
// engine training runs with the same options, so the bar resets in place
// when the decoder phase starts.
func AttachProgressBar(opts *engines.TrainOptions) *engines.TrainOptions {
	attached := opts.FillDefaults()
	bar := progressbar.NewOptions(attached.Iterations,
		progressbar.OptionSetDescription("[bold]training[reset]"),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("iterations"),
		progressbar.OptionSetTheme(ProgressbarStyle),
		progressbar.OptionSetWriter(Output),
	)
	chained := attached.Callback
	lastIteration := 0
	attached.Callback = func(stats engines.TrainStats) {
		if stats.Iterations < lastIteration {
			bar.Reset()
		}
		lastIteration = stats.Iterations
		bar.Describe(fmt.Sprintf("[bold]error=%.6f[reset]", stats.Error))
		_ = bar.Set(stats.Iterations)
		if chained != nil {
			chained(stats)
		}
	}
	return attached
}
