package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/TheMichaelB/minicloud/internal/config"
	"github.com/TheMichaelB/minicloud/internal/events"
)

var rootCmd = &cobra.Command{
	Use:   "minicloud",
	Short: "Minimal remote file-storage service",
	Long: `Minicloud serves a flat storage directory over a line-oriented text
protocol: clients can list, upload, download, rename, and delete files.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loader := config.NewLoader(configPath)
		loaded, err := loader.Load()
		if err != nil {
			return err
		}
		cfg = loaded

		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		if jsonOutput {
			cfg.Log.Format = "json"
			cfg.Log.Color = false
		}

		logger, err = events.NewLogger(&cfg.Log)
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
		return nil
	},
}

var (
	configPath string
	logLevel   string
	jsonOutput bool

	cfg    *config.Config
	logger *events.Logger
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"JSON log output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}
