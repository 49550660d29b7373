package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/teslashibe/go-hearth/internal/log"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the worker and accept job dispatches",
	Long: `Run the worker HTTP server. Each POST /jobs joins a room and runs one
assistant session in it until the room closes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		logEnvironment(cfg)
		srv, err := newWorker(cfg)
		if err != nil {
			return err
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return srv.Start()
		})
		g.Go(func() error {
			<-gctx.Done()
			log.Component("cli").Info("shutting down")
			return srv.Shutdown(context.Background())
		})

		err = g.Wait()
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}
