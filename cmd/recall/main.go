package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/browser"
	flag "github.com/spf13/pflag"

	"github.com/conorfennell/recall/internal/config"
	"github.com/conorfennell/recall/internal/deck"
	"github.com/conorfennell/recall/internal/gitsource"
	"github.com/conorfennell/recall/internal/logger"
	"github.com/conorfennell/recall/internal/storage"
	"github.com/conorfennell/recall/internal/web"
)

type actions struct {
	addSource string
	syncOnly  bool
}

func main() {
	flags := config.Flags("recall")
	configPath := flags.String("config", "", "path to a YAML config file")
	addSource := flags.String("add-source", "", "register a deck source (path or git URL), sync it, and exit")
	syncOnly := flags.Bool("sync", false, "sync all deck sources and exit")

	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// Pick up recall.yml from the working directory when no config file
	// was named explicitly.
	if *configPath == "" {
		if _, err := os.Stat("recall.yml"); err == nil {
			*configPath = "recall.yml"
		}
	}

	cfg, err := config.Load(*configPath, flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, actions{addSource: *addSource, syncOnly: *syncOnly}, log); err != nil {
		log.Fatal("recall failed", "error", err)
	}
}

func run(cfg config.Config, act actions, log *logger.Logger) error {
	store, err := storage.Open(cfg.DB)
	if err != nil {
		return err
	}
	defer store.Close()
	log.Info("database opened", "path", cfg.DB)

	mirror := gitsource.NewMirror(cfg.ReposDir, log.With("component", "gitsource"))
	syncer := deck.NewSyncer(store, mirror, log.With("component", "deck"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if act.addSource != "" {
		src, err := store.AddSource(act.addSource)
		if err != nil {
			return err
		}
		log.Info("source registered", "path", src.Path, "kind", src.Kind)
		report, err := syncer.SyncSource(ctx, src)
		if err != nil {
			return err
		}
		log.Info("source synced", "parsed", report.Parsed, "added", report.Added, "removed", report.Removed)
		return nil
	}

	if act.syncOnly {
		report, err := syncer.SyncAll(ctx)
		if err != nil {
			return err
		}
		log.Info("decks synced", "sources", report.Sources, "added", report.Added, "removed", report.Removed)
		return nil
	}

	// Refresh registered decks before serving so the first session sees
	// current files.
	if sources, err := store.Sources(); err == nil && len(sources) > 0 {
		if report, err := syncer.SyncAll(ctx); err != nil {
			log.Warn("initial deck sync failed", "error", err)
		} else {
			log.Info("decks synced", "sources", report.Sources, "added", report.Added, "removed", report.Removed)
		}
	}

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           web.NewServer(store, syncer, cfg.DueLimit, log.With("component", "web")),
		ReadHeaderTimeout: 5 * time.Second,
	}

	url := fmt.Sprintf("http://localhost:%d", cfg.Port)
	if !cfg.NoBrowser {
		go func() {
			// Give the listener a moment to come up first.
			time.Sleep(time.Second)
			if err := browser.OpenURL(url); err != nil {
				log.Warn("failed to open browser", "url", url, "error", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	log.Info("listening", "addr", cfg.Addr(), "url", url)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}
