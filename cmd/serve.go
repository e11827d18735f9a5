package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/studyplan/internal/api"
	"github.com/abhisek/studyplan/internal/remote"
)

func newServeCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API, /metrics and /healthz",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd, setupOptions{console: true})
			if err != nil {
				return err
			}
			defer rt.Close()

			addr, _ := cmd.Flags().GetString("addr")
			if addr == "" {
				addr = rt.cfg.Serve.Addr
			}

			// A missing current user is fine; clients select one via the API.
			if id, _ := cmd.Flags().GetString("user"); id != "" {
				if err := rt.tracker.Select(cmd.Context(), id); err != nil {
					return err
				}
			} else if _, err := rt.tracker.Restore(cmd.Context()); err != nil {
				return err
			}

			checks := []api.Option{api.WithHealthCheck("store", rt.store.DB().PingContext)}
			if rc, ok := rt.remote.(*remote.RedisClient); ok {
				checks = append(checks, api.WithHealthCheck("redis", rc.HealthCheck))
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           api.New(rt.tracker, rt.metrics, rt.log, checks...).Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errc := make(chan error, 1)
			go func() {
				rt.log.Info("api listening", zap.String("addr", addr))
				errc <- srv.ListenAndServe()
			}()

			select {
			case err := <-errc:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("serve: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			rt.log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	c.Flags().String("addr", "", "Listen address (overrides serve.addr)")
	return c
}
