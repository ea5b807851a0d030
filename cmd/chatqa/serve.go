package main

import (
	"fmt"
	"time"

	"chatqa/internal/metrics"
	"chatqa/internal/qa"
	"chatqa/internal/server"

	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var (
		src  sourceFlags
		addr string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP question answering service",
		Long:  "Serves GET /ask?q=..., GET /health and the Prometheus metrics endpoint. Press Ctrl+C to stop.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr()
			}

			msgSource, closeSource, err := openSource(cfg, src)
			if err != nil {
				return err
			}
			defer closeSource()

			var m *metrics.Metrics
			metricsPath := ""
			if cfg.Metrics.Enabled {
				m = metrics.New()
				metricsPath = cfg.Metrics.Endpoint
			}

			srv := server.New(server.Config{
				Addr:         addr,
				ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
				WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
				RateLimit:    cfg.Server.RateLimitPerSecond,
				RateBurst:    cfg.Server.RateLimitBurst,
				MetricsPath:  metricsPath,
				Source:       msgSource,
				Engine:       qa.NewEngine(logger),
				Metrics:      m,
				Logger:       logger,
			})

			ctx, stop := signalContext()
			defer stop()

			if err := srv.Start(ctx); err != nil {
				return fmt.Errorf("http server: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		},
	}
	src.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.host:server.port)")
	return cmd
}
