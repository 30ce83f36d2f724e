package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/getstatikd/statikd/pkg/config"
	"github.com/getstatikd/statikd/pkg/logging"
	"github.com/getstatikd/statikd/pkg/metrics"
	"github.com/getstatikd/statikd/pkg/server"
)

func newServeCmd() *cobra.Command {
	var (
		configPath    string
		addr          string
		logLevel      string
		logFormat     string
		watch         bool
		enableMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve [dir]",
		Short: "Serve a site directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.Root = args[0]
			}
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Log.Level = logLevel
			}
			if cmd.Flags().Changed("log-format") {
				cfg.Log.Format = logFormat
			}
			if cmd.Flags().Changed("watch") {
				cfg.Watch = watch
			}
			if cmd.Flags().Changed("metrics") {
				cfg.Metrics.Enabled = enableMetrics
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			log := logging.New(logging.Config{
				Level:  logging.ParseLevel(cfg.Log.Level),
				Format: logging.ParseFormat(cfg.Log.Format),
			})

			srv, err := server.New(cfg,
				server.WithLogger(log),
				server.WithMetrics(metrics.Default()))
			if err != nil {
				return fmt.Errorf("start server: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(),
				syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to statikd.yaml")
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload rules when the rule files change")
	cmd.Flags().BoolVar(&enableMetrics, "metrics", false, "expose Prometheus metrics")
	return cmd
}
