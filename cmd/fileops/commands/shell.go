package commands

import (
	"bufio"
	"os"
	"strings"

	"github.com/orbitfm/fileops/cmd/fileops/opts"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

// NewShellCmd creates the interactive session command. Undo and redo
// only make sense against operations performed in the same session,
// which is what the shell provides.
func NewShellCmd(ro *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive session with undo and redo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd, ro)
		},
	}
}

func runShell(cmd *cobra.Command, ro *opts.RootOpts) error {
	ro.UserLogger.Header("interactive session")
	ro.UserLogger.Info("commands: copy, move, delete, rename, undo, redo, history, trash, quit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		os.Stdout.WriteString("fileops> ")
		if !scanner.Scan() {
			break
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		if fields[0] == "quit" || fields[0] == "exit" {
			break
		}
		if err := runShellCommand(cmd, ro, fields[0], fields[1:]); err != nil {
			ro.UserLogger.Error(err.Error())
		}
	}

	if err := ro.Dispatcher.Wait(); err != nil {
		return errors.Errorf("waiting for workers: %w", err)
	}
	return scanner.Err()
}

func runShellCommand(cmd *cobra.Command, ro *opts.RootOpts, verb string, args []string) error {
	ctx := cmd.Context()

	switch verb {
	case "copy", "move":
		if len(args) < 2 {
			return errors.Errorf("usage: %s SOURCE... DEST", verb)
		}
		sources, dest := args[:len(args)-1], args[len(args)-1]
		queue := ro.Dispatcher.Copy
		if verb == "move" {
			queue = ro.Dispatcher.Move
		}
		opID, err := queue(ctx, sources, dest)
		if err != nil {
			return err
		}
		return watchOperation(ctx, ro, opID)

	case "delete":
		if len(args) < 1 {
			return errors.Errorf("usage: delete SOURCE...")
		}
		opID, err := ro.Dispatcher.Delete(ctx, args)
		if err != nil {
			return err
		}
		return watchOperation(ctx, ro, opID)

	case "rename":
		if len(args) != 2 {
			return errors.Errorf("usage: rename OLD NEW")
		}
		if err := ro.Dispatcher.Rename(ctx, args[0], args[1]); err != nil {
			return err
		}
		ro.UserLogger.Successf("renamed %s to %s", args[0], args[1])
		return nil

	case "undo":
		undone, err := ro.Manager.Undo()
		if err != nil {
			return err
		}
		ro.UserLogger.Successf("undid: %s", undone.Description())
		return nil

	case "redo":
		redone, err := ro.Manager.Redo()
		if err != nil {
			return err
		}
		ro.UserLogger.Successf("redid: %s", redone.Description())
		return nil

	case "history":
		printHistory(ro)
		return nil

	case "trash":
		return printTrash(ro)

	default:
		return errors.Errorf("unknown command %q", verb)
	}
}

func printHistory(ro *opts.RootOpts) {
	if desc, ok := ro.Manager.UndoDescription(); ok {
		ro.UserLogger.Infof("next undo: %s (%d total)", desc, ro.Manager.UndoDepth())
	} else {
		ro.UserLogger.Info("nothing to undo")
	}
	if desc, ok := ro.Manager.RedoDescription(); ok {
		ro.UserLogger.Infof("next redo: %s (%d total)", desc, ro.Manager.RedoDepth())
	} else {
		ro.UserLogger.Info("nothing to redo")
	}
}
