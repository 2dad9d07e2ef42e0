package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhisek/inkling/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.Close(context.Background())

		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			a.cfg.Server.Addr = addr
		}
		return server.Run(ctx, a.cfg.Server, server.Deps{
			Topics:  a.topics,
			Quiz:    a.quiz,
			Sweeper: a.sweeper,
			Store:   a.store,
			Graph:   a.graph,
			Log:     a.log,
		})
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides config)")
}
