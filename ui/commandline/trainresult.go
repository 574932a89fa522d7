// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package commandline

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/gomlx/autoencoder"
	"github.com/gomlx/autoencoder/engines"
)

var (
	normalStyle       = lipgloss.NewStyle().Padding(0, 1)
	rightAlignedStyle = lipgloss.NewStyle().Align(lipgloss.Right).Padding(0, 1)
	tableBorderColor  = "#705090"
)

// TrainResultTable renders the outcome of the two training phases as a
// bordered table, ready to print.
func TrainResultTable(result *autoencoder.TrainResult) string {
	if result == nil || result.Encoder == nil || result.Decoder == nil {
		return ""
	}
	table := lgtable.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color(tableBorderColor))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return rightAlignedStyle
			}
			return normalStyle
		}).
		Headers("Phase", "Iterations", "Error", "Elapsed")
	for _, phase := range []struct {
		name  string
		stats *engines.TrainStats
	}{
		{"encoder", result.Encoder},
		{"decoder", result.Decoder},
	} {
		table.Row(phase.name,
			humanize.Comma(int64(phase.stats.Iterations)),
			fmt.Sprintf("%.6f", phase.stats.Error),
			phase.stats.Elapsed.Round(time.Millisecond).String())
	}
	return table.String()
}

// PrintTrainResult writes the TrainResultTable rendering to Output.
func PrintTrainResult(result *autoencoder.TrainResult) {
	fmt.Fprintln(Output, TrainResultTable(result))
}
