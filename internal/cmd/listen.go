package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/offlinefirst/dragsense/pkg/broadcast"
	"github.com/offlinefirst/dragsense/pkg/config"
	"github.com/offlinefirst/dragsense/pkg/drag"
	"github.com/offlinefirst/dragsense/pkg/events"
	"github.com/offlinefirst/dragsense/pkg/gesture"
	"github.com/offlinefirst/dragsense/pkg/journal"
	"github.com/offlinefirst/dragsense/pkg/logging"
	"github.com/offlinefirst/dragsense/pkg/pasteboard"
)

var (
	timeNow        = time.Now
	newEventSource = func() (events.Source, error) { return events.NewTap(events.Options{Clock: timeNow}) }
	dragPasteboard = pasteboard.Drag
)

func newListenCommand(rc *RootCommand) *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Watch live drags and report content changes, shakes and drops",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rc.ensureAppContext()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runListen(ctx, app, rc.stdout)
		},
	}
}

func runListen(ctx context.Context, app *AppContext, stdout io.Writer) error {
	if app == nil {
		return errors.New("application context unavailable")
	}
	logger := app.Logger

	source, err := newEventSource()
	if err != nil {
		return fmt.Errorf("initialise event tap: %w", err)
	}

	store, err := openJournal(app.Config.Journal, logger)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	out := &sink{out: stdout, clock: timeNow, journal: store}

	if app.Config.Broadcast.Enabled {
		hub, shutdown, err := serveBroadcast(app.Config.Broadcast, logger)
		if err != nil {
			return err
		}
		defer shutdown()
		out.hub = hub
	}

	coord, err := drag.NewCoordinator(drag.CoordinatorOptions{
		Events:     source,
		Pasteboard: dragPasteboard(),
		Gesture:    gestureOptions(app.Config.Gesture, nil),
		Logger:     logging.Component(logger, "drag"),
	})
	if err != nil {
		return err
	}
	out.attach(coord)

	err = coord.Listen(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Info("listener stopped")
		return nil
	}
	if errors.Is(err, events.ErrAccessibilityPermission) {
		return fmt.Errorf("%w: run `dragsense doctor` for guidance", err)
	}
	return err
}

func gestureOptions(cfg config.GestureConfig, clock func() time.Time) gesture.Options {
	return gesture.Options{
		Window:       cfg.Window(),
		ReversalGap:  cfg.ReversalGap(),
		MinReversals: cfg.MinReversals,
		Clock:        clock,
	}
}

func openJournal(cfg config.JournalConfig, logger *slog.Logger) (*journal.Store, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	redactor, err := journal.NewRedactor(cfg.RedactEmails, cfg.RedactPatterns)
	if err != nil {
		return nil, fmt.Errorf("initialise journal redactor: %w", err)
	}
	store, err := journal.Open(journal.Options{
		Path:     cfg.Path,
		Redactor: redactor,
		Clock:    timeNow,
		Logger:   logging.Component(logger, "journal"),
	})
	if err != nil {
		return nil, err
	}
	logger.Info("journal opened", "path", cfg.Path, "run_id", store.RunID())
	return store, nil
}

func serveBroadcast(cfg config.BroadcastConfig, logger *slog.Logger) (*broadcast.Hub, func(), error) {
	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return nil, nil, fmt.Errorf("listen for websocket clients on %s: %w", cfg.Listen, err)
	}

	hub := broadcast.NewHub(broadcast.Options{
		AllowAnyOrigin: cfg.AllowAnyOrigin,
		Logger:         logging.Component(logger, "broadcast"),
	})
	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("websocket server failed", "error", err)
		}
	}()
	logger.Info("broadcasting notifications", "url", "ws://"+ln.Addr().String()+"/ws")

	shutdown := func() {
		hub.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
	return hub, shutdown, nil
}
