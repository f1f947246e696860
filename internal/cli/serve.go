package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stereopipe/sgm/internal/server"
	"github.com/stereopipe/sgm/internal/store"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the matching job server",
	Long: `Starts an HTTP server that accepts stereo matching jobs, streams row
progress over SSE, and serves the resulting disparity images.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := serveAddr
		if addr == "" {
			addr = cfg.Server.Addr
		}

		runStore, err := store.NewFSStore(cfg.Output.DataDir)
		if err != nil {
			return fmt.Errorf("failed to open run store: %w", err)
		}

		return server.NewServer(addr, runStore).Start()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}
