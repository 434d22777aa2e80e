package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/offlinefirst/dragsense/pkg/journal"
	"github.com/offlinefirst/dragsense/pkg/logging"
)

type historyOptions struct {
	limit int
	json  bool
}

func newHistoryCommand(rc *RootCommand) *cobra.Command {
	var opts historyOptions
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently journaled notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rc.ensureAppContext()
			if err != nil {
				return err
			}
			return runHistory(cmd.Context(), app, opts, rc.stdout)
		},
	}
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 20, "Number of entries to show")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print entries as JSON")
	return cmd
}

func runHistory(ctx context.Context, app *AppContext, opts historyOptions, stdout io.Writer) error {
	if app == nil {
		return errors.New("application context unavailable")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	path := app.Config.Journal.Path
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		_, err := fmt.Fprintf(stdout, "No journal at %s yet.\n", path)
		return err
	}

	store, err := journal.Open(journal.Options{Path: path, Logger: logging.Component(app.Logger, "journal")})
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Recent(ctx, opts.limit)
	if err != nil {
		return err
	}

	if opts.json {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if entries == nil {
			entries = []journal.Entry{}
		}
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		_, err := fmt.Fprintln(stdout, "No notifications recorded.")
		return err
	}

	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tNOTIFICATION\tKIND\tSUMMARY")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.RecordedAt.Local().Format("2006-01-02 15:04:05"), e.Notification, e.ContentKind, e.Summary)
	}
	return tw.Flush()
}
