package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/nutriscan/pkg/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the NutriScan MCP server (stdio)",
	Long: `Start a Model Context Protocol (MCP) server that exposes product lookup, the
dietary profile, the food journal, the food guide, the shopping list and the AI
analyses as MCP tools via STDIO.

The --db flag is optional. If not provided, a system-specific default location will be used:
- Windows: %USERPROFILE%\AppData\Roaming\nutriscan\nutriscan.db
- macOS: ~/Library/Application Support/nutriscan/nutriscan.db
- Linux: ~/.local/share/nutriscan/nutriscan.db

AI tools need GEMINI_API_KEY; every other tool works without it.

Example:
  nutriscan mcp
  nutriscan mcp --db nutriscan.db --wal`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		// Log to stderr so we don't contaminate the JSON-RPC stream on stdout.
		fmt.Fprintf(os.Stderr, "NutriScan MCP server started. DB: %s (WAL: %t, Sync: %s)\n", dbFile(), walMode, syncMode)
		fmt.Fprintf(os.Stderr, "Available tools: %s\n", strings.Join(mcp.ToolNames, ", "))
		fmt.Fprintln(os.Stderr, "Listening for MCP JSON-RPC on STDIN/STDOUT ... (Ctrl+C to quit)")

		return mcp.Serve(a)
	},
}
