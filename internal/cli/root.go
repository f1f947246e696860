// Package cli implements the sgm command line interface.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/stereopipe/sgm/internal/config"
)

var (
	logLevel   string
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "sgm",
	Short: "Semi-global stereo matching",
	Long: `sgm estimates per-pixel disparity between a rectified stereo pair
using semi-global matching, with a batch reference engine and a
line-buffer streaming engine that agree bit for bit.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Setup logger
		var level slog.Level
		switch logLevel {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		default:
			level = slog.LevelInfo
		}

		opts := &slog.HandlerOptions{Level: level}
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, opts)))

		var err error
		cfg, err = config.LoadConfig(configPath)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "sgm.yaml", "Configuration file path")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
