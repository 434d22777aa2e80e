package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/offlinefirst/dragsense/pkg/drag"
	"github.com/offlinefirst/dragsense/pkg/logging"
	"github.com/offlinefirst/dragsense/pkg/pasteboard"
	"github.com/offlinefirst/dragsense/pkg/replay"
)

type replayOptions struct {
	journal bool
}

func newReplayCommand(rc *RootCommand) *cobra.Command {
	var opts replayOptions
	cmd := &cobra.Command{
		Use:   "replay <script>",
		Short: "Feed a scripted drag through the detector",
		Long: `Replay reads a YAML script of pointer and pasteboard steps and runs it
through the same coordinator the live listener uses, on a scripted clock.
It works on every platform and never touches the system pasteboard.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rc.ensureAppContext()
			if err != nil {
				return err
			}
			return runReplay(cmd.Context(), app, args[0], opts, rc.stdout)
		},
	}
	cmd.Flags().BoolVar(&opts.journal, "journal", false, "Also record notifications in the journal")
	return cmd
}

func runReplay(ctx context.Context, app *AppContext, path string, opts replayOptions, stdout io.Writer) error {
	if app == nil {
		return errors.New("application context unavailable")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	plan, err := replay.Load(path)
	if err != nil {
		return err
	}

	clock := replay.NewClock(timeNow())
	board := pasteboard.NewMemory()
	out := &sink{out: stdout, clock: clock.Now}

	if opts.journal {
		store, err := openJournal(app.Config.Journal, app.Logger)
		if err != nil {
			return err
		}
		if store == nil {
			return errors.New("journal is disabled in configuration")
		}
		defer store.Close()
		out.journal = store
	}

	coord, err := drag.NewCoordinator(drag.CoordinatorOptions{
		Events:     plan.Source(board, clock),
		Pasteboard: board,
		Gesture:    gestureOptions(app.Config.Gesture, clock.Now),
		Logger:     logging.Component(app.Logger, "drag"),
	})
	if err != nil {
		return err
	}
	out.attach(coord)

	app.Logger.Info("replaying script", "path", path, "name", plan.Name, "actions", plan.Len())
	if err := coord.Listen(ctx); err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "replayed %d actions over %s\n", plan.Len(), plan.Duration())
	return err
}
