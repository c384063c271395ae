package commands

import (
	"github.com/orbitfm/fileops/cmd/fileops/opts"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

// NewDeleteCmd creates a new delete command
func NewDeleteCmd(ro *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete SOURCE...",
		Short: "Delete files and directories into the trash",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if ro.Trash == nil {
				ro.UserLogger.Warning("no trash configured, deletes are permanent")
			}

			id, err := ro.Dispatcher.Delete(cmd.Context(), args)
			if err != nil {
				return errors.Errorf("queueing delete: %w", err)
			}
			return watchOperation(cmd.Context(), ro, id)
		},
	}
	return cmd
}
