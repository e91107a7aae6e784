// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/pubmed-search/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the search API over HTTP",
	Long: `Serve exposes searches over HTTP:

  GET  /api/health
  POST /api/search   {"searchterm", "mode", "email", "searchnumber", "sortby"}
  GET  /api/history  ?q=<text>&limit=<n>

Searches are rate limited per client address and recorded in the history
database. The server stops gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from config, :5000)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	var hist server.History
	store, err := openHistory(cfg)
	if err != nil {
		logger.Warn("history disabled", slog.Any("err", err))
	} else if store != nil {
		defer store.Close()
		hist = store
	}

	srv := server.New(cfg.Server, newService(cfg), hist, version,
		logger.With(slog.String("prefix", "server")))

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error { return srv.Run(ctx) })
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("stopping server", slog.Any("reason", context.Cause(ctx)))
		return nil
	})
	return g.Wait()
}
