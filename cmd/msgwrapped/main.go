package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"msgwrapped/internal/config"
	"msgwrapped/internal/pipeline"

	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
	verbose    bool
)

func main() {
	root := &cobra.Command{
		Use:   "msgwrapped",
		Short: "Export your yearly message statistics as a shareable encrypted link",
		Long: `msgwrapped reads your local message history and contacts, computes
yearly statistics, and uploads them compressed and encrypted. The
decryption key only ever appears in the returned link's fragment.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yaml (default: ~/.msgwrapped/config.yaml)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(exportCmd())
	root.AddCommand(sizeCmd())
	root.AddCommand(contactsCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

// loadConfig falls back to defaults when no config file exists; the file
// is optional for a tool whose defaults match a stock installation.
func loadConfig() *config.Config {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Debug("config not found, using defaults", "path", cfgPath, "err", err)
		return config.Defaults()
	}
	return cfg
}

func exportCmd() *cobra.Command {
	var apiURL string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Run the full export pipeline and print the result envelope",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			runner := pipeline.New(loadConfig(), logger)
			fmt.Println(runner.Run(ctx, apiURL))
			return nil
		},
	}
	cmd.Flags().StringVar(&apiURL, "api-url", "", "override the upload endpoint base URL")
	return cmd
}

func sizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "size",
		Short: "Print the message store size in megabytes",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := pipeline.New(loadConfig(), logger)
			fmt.Printf("%.2f\n", runner.DatabaseSizeMB())
			return nil
		},
	}
}

func contactsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "contacts",
		Short: "Report whether any contact records are reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := pipeline.New(loadConfig(), logger)
			fmt.Println(runner.HasContacts(cmd.Context()))
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the msgwrapped version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}
