package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/1enzo1/nfe-product-import/internal/config"
	"github.com/1enzo1/nfe-product-import/internal/importer/pipeline"
	serverhttp "github.com/1enzo1/nfe-product-import/server/http"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to config file")
		mode       = flag.String("mode", "process", "process | watch | serve")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		println(err.Error())
		os.Exit(1)
	}
	logger := config.SetupLogger(cfg)

	p := pipeline.New(cfg, logger)

	switch *mode {
	case "process":
		if _, err := p.Run(flag.Args(), "manual"); err != nil {
			logger.Fatal().Err(err).Msg("run failed")
		}

	case "watch":
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := p.Watch(ctx); err != nil && err != context.Canceled {
			logger.Fatal().Err(err).Msg("watch failed")
		}

	case "serve":
		r := serverhttp.NewRouter(cfg, logger, p)
		srv := &http.Server{Addr: cfg.Addr(), Handler: r}
		logger.Info().Str("addr", cfg.Addr()).Msg("server starting")

		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Fatal().Err(err).Msg("listen")
			}
		}()

		// graceful shutdown
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		logger.Info().Msg("server shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		logger.Info().Msg("bye")

	default:
		logger.Fatal().Str("mode", *mode).Msg("unknown mode")
	}
}
