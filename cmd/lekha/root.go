package main

import (
	"github.com/spf13/cobra"
)

var outputFormat string

var rootCmd = &cobra.Command{
	Use:   "lekha",
	Short: "Reconcile multi-engine OCR output and review it segment by segment",
	Long: `Lekha runs several OCR engines over scanned pages, aligns their word
boxes, resolves a consensus transcription and flags the places where the
engines disagreed. The review API serves the resulting line and word
segments for correction.

Configuration is read from LEKHA_* environment variables.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
}
