package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"TeaCounter/internal/config"
	"TeaCounter/pkg/kit"
)

const service = "teacounter"

var (
	configPath    string
	storageDriver string
	storagePath   string
	logLevel      string

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "teacounter",
	Short: "Point-of-sale counter for a tea stall",
	Long: `TeaCounter keeps the stall's item list with prices, counts what the
customer orders and shows the total. Catalog and counts survive restarts.

Run "teacounter serve" for the web page or "teacounter tui" in a terminal.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if storageDriver != "" {
			cfg.Storage.Driver = storageDriver
		}
		if storagePath != "" {
			cfg.Storage.Path = storagePath
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}

		// The terminal owns stdout and stderr while the TUI runs.
		switch {
		case cfg.Log.File != "":
			logger = kit.NewLogger(service, cfg.Log.Level, cfg.Log.File)
		case cmd.Name() == tuiCmd.Name():
			logger = zap.NewNop()
		default:
			logger = kit.NewLogger(service, cfg.Log.Level)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&storageDriver, "storage", "", "Storage driver: memory, file, sqlite, postgres or redis")
	rootCmd.PersistentFlags().StringVar(&storagePath, "data", "", "Data directory or sqlite file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(hashPINCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
