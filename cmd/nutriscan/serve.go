package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/nutriscan/pkg/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON and websocket API over HTTP",
	Long: `Starts the HTTP API on NUTRISCAN_HTTP_ADDR (default 127.0.0.1:8080), or --addr.
Set NUTRISCAN_CORS_ORIGINS to a comma separated list to allow browser clients.
Ctrl+C shuts the server down gracefully.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = a.Config.HTTPAddr
		}
		fmt.Fprintf(os.Stderr, "NutriScan API listening on http://%s (DB: %s)\n", addr, dbFile())
		return api.ListenAndServe(cmd.Context(), addr, a)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address, overrides NUTRISCAN_HTTP_ADDR")
}
