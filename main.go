// Command pagewatch runs the page-change monitoring server: periodic
// checks via the scheduler plus the HTTP/WebSocket API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/raysh454/pagewatch/internal/cli"
	"github.com/raysh454/pagewatch/internal/logging"
	"github.com/raysh454/pagewatch/internal/server"
)

func main() {
	logger := logging.NewStdoutLogger("PageWatch")

	args, err := cli.ParseArgs(os.Args[1:])
	if err != nil {
		logger.Error("parsing arguments", logging.Field{Key: "error", Value: err.Error()})
		os.Exit(2)
	}

	cfg, err := args.BuildConfig()
	if err != nil {
		logger.Error("building configuration", logging.Field{Key: "error", Value: err.Error()})
		os.Exit(1)
	}
	cfg.Logger = logger

	srv, err := server.NewServer(cfg)
	if err != nil {
		logger.Error("starting server", logging.Field{Key: "error", Value: err.Error()})
		os.Exit(1)
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Periodic checks run alongside the HTTP API.
	go func() {
		if err := srv.App().Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("scheduler stopped", logging.Field{Key: "error", Value: err.Error()})
		}
	}()

	httpSrv := srv.HTTPServer()
	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		_ = httpSrv.Shutdown(context.Background())
	}()

	logger.Info("listening", logging.Field{Key: "addr", Value: httpSrv.Addr})
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server", logging.Field{Key: "error", Value: err.Error()})
		os.Exit(1)
	}
}
