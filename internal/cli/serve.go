package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mudler/xlog"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/jmccallister93/Daily-Digits/internal/character"
	"github.com/jmccallister93/Daily-Digits/internal/config"
	"github.com/jmccallister93/Daily-Digits/internal/decay"
	"github.com/jmccallister93/Daily-Digits/internal/notify"
	"github.com/jmccallister93/Daily-Digits/internal/server"
	"github.com/jmccallister93/Daily-Digits/internal/store"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the character store, decay scheduler and HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&configPath, "config", "", "path to a TOML config file")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	// xlog picks up LOG_LEVEL and LOG_FORMAT when the process starts.
	if configPath != "" && os.Getenv("LOG_LEVEL") == "" && cfg.Log.Level != config.Default().Log.Level {
		fmt.Fprintf(os.Stderr, "warning: log.level %q from %s applies only when exported as LOG_LEVEL\n", cfg.Log.Level, configPath)
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	chars := character.New(db)
	chars.Load()
	defer chars.Close()

	feed := notify.NewFeed(cfg.Notify.FeedSize, nil)
	sched := decay.New(chars, db, notify.Multi{notify.Log{}, feed},
		decay.WithMaxSleep(cfg.Decay.MaxSleep),
		decay.WithHistory(db),
	)
	chars.Subscribe(sched.HandleEvent)
	if res := sched.Load(); len(res.Applied) > 0 {
		fmt.Fprintf(os.Stderr, "  caught up %d decay setting(s)\n", len(res.Applied))
	}
	defer sched.Close()

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		sched.Run(ctx)
	}()
	defer func() {
		cancel()
		<-stopped
	}()

	sweep := cron.New()
	if _, err := sweep.AddFunc(cfg.Decay.Sweep, func() {
		sched.Wake()
		if n, err := db.PruneDecayEvents(cfg.Decay.HistoryLimit); err != nil {
			xlog.Error("Failed to prune decay history", "error", err)
		} else if n > 0 {
			xlog.Debug("Pruned decay history", "removed", n)
		}
	}); err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}
	sweep.Start()

	addr := cfg.ListenAddr()
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.New(db, chars, sched, feed, VersionString()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "digits serving on %s\n", addr)
		fmt.Fprintf(os.Stderr, "  db: %s\n", db.Path)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-done:
	case err := <-errCh:
		<-sweep.Stop().Done()
		return fmt.Errorf("server: %w", err)
	}
	fmt.Fprintln(os.Stderr, "\nshutting down...")

	<-sweep.Stop().Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return httpServer.Shutdown(shutdownCtx)
}

// openDB opens the configured database, falling back to DefaultDBPath.
func openDB(cfg *config.Config) (*store.DB, error) {
	path := cfg.Database.Path
	if path == "" {
		var err error
		if path, err = store.DefaultDBPath(); err != nil {
			return nil, fmt.Errorf("resolve db path: %w", err)
		}
	}
	db, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}
