package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/andy/wattsun/internal/app"
	"github.com/andy/wattsun/internal/config"
	"github.com/andy/wattsun/internal/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	appInstance *app.App
	logCloser   io.Closer

	configPath string
	ephemeral  bool
)

// annotationNoApp marks commands that run without opening the store
const annotationNoApp = "wattsun/no-app"

var rootCmd = &cobra.Command{
	Use:   "wattsun",
	Short: "A terminal invoice pad for solar installers",
	Long: `Wattsun lets you type up invoices line by line, keep them in an encrypted
local store, and export them as PDF.

By default, running wattsun without arguments launches the interactive form.
Use subcommands for CLI operations.`,
	SilenceUsage: true,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logCloser != nil {
			return logCloser.Close()
		}
		return nil
	},
	RunE: launchTUI,
}

// Execute runs the root command. Cancelling ctx stops the form and any
// store operation in flight.
func Execute(ctx context.Context) error {
	defer func() {
		if appInstance != nil {
			appInstance.Close()
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

// SetApp sets the app instance for commands to use
func SetApp(a *app.App) {
	appInstance = a
}

// initApp builds the container unless one was injected with SetApp. The
// form owns the terminal, so it logs to a file; other commands log to stderr.
func initApp(cmd *cobra.Command, args []string) error {
	if appInstance != nil || cmd.Name() == "help" || cmd.Name() == "completion" {
		return nil
	}
	if cmd.Annotations[annotationNoApp] != "" {
		return nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var logger zerolog.Logger
	if cmd == rootCmd || cmd == tuiCmd {
		logger, logCloser, err = logging.NewFile(cfg.Log.File, cfg.Log.Level)
	} else {
		logger, err = logging.New(os.Stderr, cfg.Log.Level)
	}
	if err != nil {
		return err
	}

	a, err := app.NewWithConfig(cmd.Context(), cfg, logger, app.Options{Ephemeral: ephemeral})
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}
	appInstance = a
	return nil
}

func init() {
	// Assigned here rather than in the literal: initApp refers to rootCmd.
	rootCmd.PersistentPreRunE = initApp

	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath(), "Path to config file")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "Keep invoices in memory only (nothing is written to disk)")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(invoicesCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(tuiCmd)
}
