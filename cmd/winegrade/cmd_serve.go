package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/straja-ai/winegrade/internal/server"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API.

Endpoints:
  GET  /healthz                        liveness
  POST /v1/analyze                     classify and diagnose one sample
  GET  /v1/samples                     example wines
  GET  /v1/samples/{index}/analysis    analysis of one example wine
  GET  /v1/bands                       band tables for auditing`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			cfg := a.cfg.Server
			if addr != "" {
				cfg.Addr = addr
			}
			return server.New(cfg, a.svc, a.tel, a.log).Start(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides config)")
	return cmd
}
