package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/offlinefirst/dragsense/internal/buildinfo"
)

func newVersionCommand(rc *RootCommand) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := fmt.Fprintln(rc.stdout, versionString()); err != nil {
				return err
			}
			if !verbose {
				return nil
			}
			rev := buildinfo.Revision()
			if rev == "" {
				rev = "unknown"
			}
			_, err := fmt.Fprintf(rc.stdout, "revision: %s\n", rev)
			return err
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Include the VCS revision")
	return cmd
}
