package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/kinesis/pkg/controller"
	"github.com/vango-dev/kinesis/pkg/server"
)

func serveCmd(g *globalOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve [app]",
		Short: "Serve a component over WebSocket",
		Long: `Serve a component to browsers. Every connection mounts its own
instance; the page at / loads a small client that applies the streamed
host operations and sends events back.

Examples:
  kinesis serve
  kinesis serve todo --addr :9000
  kinesis serve -c kinesis.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			name, comp, err := app(cfg, args)
			if err != nil {
				return err
			}
			sc, err := server.ConfigFrom(cfg)
			if err != nil {
				return err
			}

			logger := newLogger(cfg, cmd.ErrOrStderr())
			opts := []server.Option{
				server.WithLogger(logger),
				server.WithControllerOptions(controller.WithTracerName(cfg.Tracing.TracerName)),
			}
			if cfg.Metrics.Enabled {
				reg := prometheus.NewRegistry()
				reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
				opts = append(opts, server.WithRegistry(reg))
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			if store != nil {
				defer closeStore(store)
				opts = append(opts, server.WithSnapshots(store))
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.New(name, comp, sc, opts...).Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config)")
	return cmd
}
