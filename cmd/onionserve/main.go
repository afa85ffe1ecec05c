package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"ikedadada/go-onionctl/internal/config"
	vo "ikedadada/go-onionctl/internal/domain/value_object"
	"ikedadada/go-onionctl/internal/handler"
	"ikedadada/go-onionctl/internal/infrastructure/logging"
	"ikedadada/go-onionctl/internal/infrastructure/repository"
	infraSvc "ikedadada/go-onionctl/internal/infrastructure/service"
	"ikedadada/go-onionctl/internal/usecase"
	"ikedadada/go-onionctl/internal/usecase/service"
)

const probeInterval = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "onionserve:", err)
		os.Exit(1)
	}
}

// run publishes a demo HTTP server as an onion service until ctx ends or
// the control connection goes away.
func run(ctx context.Context, args []string, stdout io.Writer) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := config.ParseArgs("onionserve", args, wd, nil)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogOptions())
	if err != nil {
		return err
	}
	defer logger.Close()
	log := logger.Logger

	keys := repository.NewKeyMaterialRepository(log)
	dirs := repository.NewServiceDirRepository(log)
	uc := usecase.NewAttachOnionUseCase(
		infraSvc.NewControlDialer(cfg.Control.Address, cfg.ControlAuth(), cfg.Control.Timeout, log),
		service.NewControlLineParser(),
		service.NewDialectNegotiator(cfg.Onion.LegacyMarkers...),
		keys,
		log,
		service.NewDirectStrategy(keys, log),
		service.NewDirectoryStrategy(keys, dirs, log),
	)

	ln, err := handler.Listen(ctx, uc, cfg.ToOnionOptions(), log)
	if err != nil {
		return err
	}
	defer ln.Close()

	readyCtx, cancel := context.WithTimeout(ctx, cfg.Onion.ReadyTimeout)
	addr, err := ln.WaitReady(readyCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("onion service not ready: %w", err)
	}
	fmt.Fprintln(stdout, "onion service:", addr.String())

	srv := &http.Server{Handler: demoMux(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Debug("http server stopped", "err", err)
		}
	}()

	if cfg.Probe.Enabled {
		go probe(ctx, infraSvc.NewSocksProber(cfg.Probe.SocksAddress, log), addr, cfg.Probe.Timeout, log)
	}

	select {
	case <-ctx.Done():
	case <-ln.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
	ln.Close()
	<-ln.Done()

	_, err = ln.Result()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// probe retries until the service answers through SOCKS or timeout passes.
func probe(ctx context.Context, p *infraSvc.SocksProber, addr vo.OnionAddress, timeout time.Duration, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	t := time.NewTicker(probeInterval)
	defer t.Stop()
	for {
		err := p.Probe(ctx, addr)
		if err == nil {
			return
		}
		log.Debug("probe failed, retrying", "address", addr.String(), "err", err)
		select {
		case <-ctx.Done():
			log.Warn("onion service not reachable through SOCKS", "address", addr.String(), "timeout", timeout.String())
			return
		case <-t.C:
		}
	}
}

func demoMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello from onion service"))
	})
	return mux
}
