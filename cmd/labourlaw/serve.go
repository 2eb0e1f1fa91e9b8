package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/common/logger"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/config"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/metrics"
)

func serveCmd(g *globalFlags, lookup config.LookupFunc) *cobra.Command {
	var name, metricsAddr string

	c := &cobra.Command{
		Use:   "serve",
		Short: "Serve the labour-law tools over MCP stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			srvCfg, err := loadConfig(g, lookup)
			if err != nil {
				return err
			}
			mcpServer, err := srvCfg.NewServer(name)
			if err != nil {
				return err
			}
			defer func() {
				if err := srvCfg.Close(); err != nil {
					logger.Warnf("labourlaw: close: %v", err)
				}
			}()

			if metricsAddr != "" {
				stop := serveMetrics(metricsAddr)
				defer stop()
			}
			logger.Infof("labourlaw: serving %s %s on stdio", name, labourlaw.Version)
			return server.ServeStdio(mcpServer)
		},
	}
	c.Flags().StringVar(&name, "name", "labour-law", "MCP server name")
	c.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	return c
}

func serveMetrics(addr string) func() {
	metrics.Register()
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("labourlaw: metrics server: %v", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
