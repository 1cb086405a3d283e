// =============================================================================
// Excel to Tally XML Converter - Serve Command
// =============================================================================
//
// COMMAND USAGE:
//   tallyxml serve [--listen ADDR]
//
// Runs the upload form until SIGINT or SIGTERM, then drains in-flight
// requests. Old uploads and outputs are removed on server.cleanup_schedule.
//
// =============================================================================

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ginjaninja78/excel-to-tally-xml/internal/converter"
	"github.com/ginjaninja78/excel-to-tally-xml/internal/server"
	"github.com/spf13/cobra"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web upload form",
	RunE: func(cmd *cobra.Command, args []string) error {
		if listenAddr != "" {
			appConfig.Server.Listen = listenAddr
		}

		srv := server.New(appConfig, converter.New(appConfig, logger), logger)

		scheduler, err := srv.StartCleanup()
		if err != nil {
			return err
		}
		defer func() { <-scheduler.Stop().Done() }()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return srv.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Address to listen on (default: server.listen or :$PORT)")
}
