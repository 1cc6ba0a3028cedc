//go:build tui

package main

import (
	"github.com/unowned-ai/nutriscan/pkg/tui"

	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Show terminal UI",
	Long:  `Browse the food guide, look up barcodes and track today's water in an interactive terminal UI.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		return tui.ShowTUI(a)
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
