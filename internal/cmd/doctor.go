package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/offlinefirst/dragsense/pkg/events"
	"github.com/offlinefirst/dragsense/pkg/permissions"
)

var (
	detectEvents    = events.DetectEnvironment
	probeInput      = func() permissions.ProbeResult { return permissions.ProbeInputMonitoring(nil) }
	probePasteboard = func() error {
		_, err := dragPasteboard().Revision()
		return err
	}
)

func newDoctorCommand(rc *RootCommand) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check event tap permissions and pasteboard access",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rc.ensureAppContext()
			if err != nil {
				return err
			}
			return runDoctor(app, rc.stdout)
		},
	}
}

func runDoctor(app *AppContext, stdout io.Writer) error {
	if app == nil {
		return errors.New("application context unavailable")
	}

	env := detectEvents()
	fmt.Fprintf(stdout, "Event tap:        %s (available=%t)\n", env.Provider, env.Available)
	fmt.Fprintf(stdout, "  accessibility:  %s\n", env.Permission)
	if env.Message != "" {
		fmt.Fprintf(stdout, "  note:           %s\n", env.Message)
	}
	if env.Guidance != "" {
		fmt.Fprintf(stdout, "  fix:            %s\n", env.Guidance)
	}

	input := probeInput()
	fmt.Fprintf(stdout, "Input monitoring: %s\n", input.StatusString())
	if input.Guidance != "" {
		fmt.Fprintf(stdout, "  fix:            %s\n", input.Guidance)
	}

	if err := probePasteboard(); err != nil {
		fmt.Fprintf(stdout, "Drag pasteboard:  unavailable (%v)\n", err)
	} else {
		fmt.Fprintln(stdout, "Drag pasteboard:  ok")
	}

	cfg := app.Config
	fmt.Fprintf(stdout, "Config:           %s\n", cfg.Source)
	fmt.Fprintf(stdout, "Shake threshold:  %d reversals, %s gap, %s window\n", cfg.Gesture.MinReversals, cfg.Gesture.ReversalGap(), cfg.Gesture.Window())
	if cfg.Journal.Enabled {
		fmt.Fprintf(stdout, "Journal:          %s\n", cfg.Journal.Path)
	} else {
		fmt.Fprintln(stdout, "Journal:          disabled")
	}
	if cfg.Broadcast.Enabled {
		fmt.Fprintf(stdout, "Broadcast:        ws://%s/ws\n", cfg.Broadcast.Listen)
	} else {
		fmt.Fprintln(stdout, "Broadcast:        disabled")
	}

	app.Logger.Info("doctor completed", "event_provider", env.Provider, "event_available", env.Available)
	return nil
}
