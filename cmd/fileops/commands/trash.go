package commands

import (
	"github.com/dustin/go-humanize"
	"github.com/orbitfm/fileops/cmd/fileops/opts"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

// NewTrashCmd creates the trash management command
func NewTrashCmd(ro *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trash",
		Short: "Inspect and manage the application trash",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printTrash(ro)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "restore NAME DEST",
		Short: "Restore a trashed entry to a path",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if ro.Trash == nil {
				return errors.Errorf("no trash configured")
			}
			if err := ro.Trash.Restore(args[0], args[1]); err != nil {
				return err
			}
			ro.UserLogger.Successf("restored %s to %s", args[0], args[1])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "empty",
		Short: "Permanently remove everything in the trash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ro.Trash == nil {
				return errors.Errorf("no trash configured")
			}
			if err := ro.Trash.Empty(); err != nil {
				return err
			}
			ro.UserLogger.Success("trash emptied")
			return nil
		},
	})

	return cmd
}

func printTrash(ro *opts.RootOpts) error {
	if ro.Trash == nil {
		return errors.Errorf("no trash configured")
	}

	items, err := ro.Trash.Items()
	if err != nil {
		return errors.Errorf("listing trash: %w", err)
	}
	if len(items) == 0 {
		ro.UserLogger.Info("trash is empty")
		return nil
	}

	rows := pterm.TableData{{"Name", "Size", "Deleted"}}
	for _, item := range items {
		size := humanize.Bytes(uint64(item.Size))
		if item.IsDir {
			size = "dir"
		}
		rows = append(rows, []string{item.Name, size, humanize.Time(item.ModTime)})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}
