package commands

import (
	"github.com/orbitfm/fileops/cmd/fileops/opts"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

// NewCopyCmd creates a new copy command
func NewCopyCmd(ro *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "copy SOURCE... DEST",
		Short: "Copy files and directories with live progress",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sources, dest := args[:len(args)-1], args[len(args)-1]

			id, err := ro.Dispatcher.Copy(cmd.Context(), sources, dest)
			if err != nil {
				return errors.Errorf("queueing copy: %w", err)
			}
			return watchOperation(cmd.Context(), ro, id)
		},
	}
}
