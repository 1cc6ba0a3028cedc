package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	nutriscan "github.com/unowned-ai/nutriscan/pkg"
	"github.com/unowned-ai/nutriscan/pkg/app"
	"github.com/unowned-ai/nutriscan/pkg/config"
	pkgdb "github.com/unowned-ai/nutriscan/pkg/db"
	"github.com/unowned-ai/nutriscan/pkg/store"
	"github.com/unowned-ai/nutriscan/pkg/utils"
)

var (
	dbPath    string
	walMode   bool
	syncMode  string
	logLevel  string
	logFormat string
	envFile   string
)

var rootCmd = &cobra.Command{
	Use:     "nutriscan",
	Short:   "Scan food products, check them against your diet and keep a food journal.",
	Long:    ``,
	Version: fmt.Sprintf("v%s", nutriscan.Version),
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var completionShells = []string{"bash", "zsh", "fish", "powershell"}

var completionCmd = &cobra.Command{
	Use:   fmt.Sprintf("completion %s", strings.Join(completionShells, "|")),
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for nutriscan.

The command prints a completion script to stdout. You can source it in your shell
or install it to the appropriate location for your shell to enable completions permanently.

Examples:

  Bash (current shell):
    $ source <(nutriscan completion bash)

  Zsh:
    $ nutriscan completion zsh > "${fpath[1]}/_nutriscan"

  Fish:
    $ nutriscan completion fish > ~/.config/fish/completions/nutriscan.fish

  PowerShell:
    PS> nutriscan completion powershell | Out-String | Invoke-Expression`,
	DisableFlagsInUseLine: true,
	ValidArgs:             completionShells,
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(cmd.OutOrStdout())
		case "zsh":
			return rootCmd.GenZshCompletion(cmd.OutOrStdout())
		case "fish":
			return rootCmd.GenFishCompletion(cmd.OutOrStdout(), true)
		case "powershell":
			return rootCmd.GenPowerShellCompletion(cmd.OutOrStdout())
		default:
			return fmt.Errorf("unsupported shell: %s", args[0])
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of nutriscan",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(nutriscan.Version)
	},
}

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the nutriscan database",
}

var dbUpgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Create or upgrade the nutriscan database schema",
	Long: `Opens the SQLite database (the --db flag, or the system default location) and
initialises the nutriscandb component if needed. A database written by a newer
nutriscan is refused rather than modified.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := utils.ResolveAndEnsureDBPath(dbPath)
		if err != nil {
			return err
		}
		fmt.Printf("Upgrading nutriscandb component in database at: %s (WAL: %t, Sync: %s)\n", path, walMode, syncMode)

		conn, err := pkgdb.OpenAndUpgrade(path, dbOptions())
		if err != nil {
			return err
		}
		return conn.Close()
	},
}

var dbResetCmd = &cobra.Command{
	Use:   fmt.Sprintf("reset %s", strings.Join(store.Keys, "|")),
	Short: "Restore one stored document to its defaults",
	Long: `Deletes a stored document so the next read returns its defaults. Use it when a
document can no longer be read (for example after a manual edit of the database).
Journal meals and water are not documents and are never touched.`,
	ValidArgs: store.Keys,
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := store.ResetDocument(cmd.Context(), a.DB, args[0]); err != nil {
			return fmt.Errorf("failed to reset %s: %w", args[0], err)
		}
		fmt.Printf("Reset %s to defaults.\n", args[0])
		return nil
	},
}

func dbOptions() pkgdb.Options {
	opts := pkgdb.DefaultOptions()
	opts.WAL = walMode
	opts.Sync = syncMode
	return opts
}

// openApp loads the environment, opens and upgrades the database and wires
// the app. The caller closes it.
func openApp() (*app.App, error) {
	var (
		cfg config.Config
		err error
	)
	if envFile != "" {
		cfg, err = config.LoadFile(envFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	path, err := utils.ResolveAndEnsureDBPath(dbPath)
	if err != nil {
		return nil, err
	}
	conn, err := pkgdb.OpenAndUpgrade(path, dbOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	a, err := app.New(conn, cfg, utils.NewLogger(utils.LogConfig{Level: logLevel, Format: logFormat}))
	if err != nil {
		conn.Close()
		return nil, err
	}
	return a, nil
}

func initCmd() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the database file (uses a system-specific default if not provided)")
	rootCmd.PersistentFlags().BoolVar(&walMode, "wal", false, "Enable SQLite WAL (Write-Ahead Logging) mode")
	rootCmd.PersistentFlags().StringVar(&syncMode, "sync", "FULL", "SQLite synchronous pragma (OFF, NORMAL, FULL, EXTRA)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load environment from this file instead of ./.env")

	dbCmd.AddCommand(dbUpgradeCmd, dbResetCmd)

	initProductsCmd()
	initProfileCmd()
	initJournalCmd()
	initGuideCmd()
	initShoppingCmd()
	initSettingsCmd()
	initAICmd()
	rootCmd.AddCommand(completionCmd, versionCmd, dbCmd, mcpCmd, serveCmd)
}

func main() {
	initCmd()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
