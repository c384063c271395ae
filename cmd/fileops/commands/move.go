package commands

import (
	"github.com/orbitfm/fileops/cmd/fileops/opts"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

// NewMoveCmd creates a new move command
func NewMoveCmd(ro *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "move SOURCE... DEST",
		Short: "Move files and directories, falling back to copy across filesystems",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sources, dest := args[:len(args)-1], args[len(args)-1]

			id, err := ro.Dispatcher.Move(cmd.Context(), sources, dest)
			if err != nil {
				return errors.Errorf("queueing move: %w", err)
			}
			return watchOperation(cmd.Context(), ro, id)
		},
	}
}
