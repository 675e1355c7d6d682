package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"threadbox/internal/app"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP API server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on (overrides SERVER_PORT)",
			},
			&cli.DurationFlag{
				Name:  "shutdown-timeout",
				Usage: "Grace period for in-flight requests",
				Value: 10 * time.Second,
			},
		},
		Action: func(c *cli.Context) error {
			rt, err := setup()
			if err != nil {
				return err
			}
			logger := rt.logger
			defer logger.Sync()

			if port := c.String("port"); port != "" {
				rt.cfg.ServerPort = port
			}

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			application, err := app.Bootstrap(ctx, &rt.cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			go application.EventBus.Run(ctx)

			addr := ":" + rt.cfg.ServerPort
			srv := &http.Server{
				Addr:              addr,
				Handler:           application.Router.Engine,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("Server started", zap.String("addr", "localhost"+addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return err
				}
			case <-ctx.Done():
			}
			logger.Info("Shutting down server...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), c.Duration("shutdown-timeout"))
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}

			logger.Info("Server exited gracefully")
			return nil
		},
	}
}
