/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ssargent/muninn/pkg/api"
	"github.com/ssargent/muninn/pkg/config"
	"github.com/ssargent/muninn/pkg/history"
	"github.com/ssargent/muninn/pkg/pool"
)

var (
	serveListen    string
	serveNoHistory bool
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the status and control HTTP API",
	Long: `Start the muninn HTTP API. The server accepts parse job submissions,
reports live job progress, serves session history and pool statistics,
and exposes Prometheus metrics on /metrics.

Example:
  muninn serve
  muninn serve --listen :9000 --no-history`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, ok := cmd.Context().Value("config").(*config.Config)
		if !ok {
			return fmt.Errorf("config not found in context")
		}
		log, ok := cmd.Context().Value("logger").(*logrus.Entry)
		if !ok {
			return fmt.Errorf("logger not found in context")
		}

		listen := serveListen
		if listen == "" {
			listen = cfg.Server.Listen
		}

		recordPool := pool.NewRecordPool(&pool.Config{Capacity: cfg.Pool.MaxIdle, Logger: log})
		defer recordPool.Close()

		// Session history is best effort; the API runs without it.
		var sessions api.SessionStore
		if !serveNoHistory {
			store, err := history.Open(cfg.History.Path)
			if err != nil {
				log.WithError(err).Warn("error opening history store; session history disabled")
			} else {
				defer store.Close()
				sessions = store
			}
		}

		server := api.NewServer(api.ServerConfig{
			Listen:        listen,
			PrescanTotals: cfg.Ingest.PrescanTotals,
		}, recordPool, sessions, log)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		g, ctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			return server.ListenAndServe(ctx)
		})

		g.Go(func() error {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					stats := recordPool.Statistics()
					log.WithFields(logrus.Fields{
						"gets":      stats.TotalGets,
						"hits":      stats.PoolHits,
						"hit_ratio": stats.HitRatio,
						"idle":      stats.CurrentPoolSize,
					}).Debug("pool statistics")
				}
			}
		})

		return g.Wait()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (default from config)")
	serveCmd.Flags().BoolVar(&serveNoHistory, "no-history", false, "Run without session history")
}
