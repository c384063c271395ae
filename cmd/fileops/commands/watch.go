package commands

import (
	"context"
	"time"

	"github.com/orbitfm/fileops/cmd/fileops/opts"
	"github.com/orbitfm/fileops/pkg/log"
	"github.com/orbitfm/fileops/pkg/operation"
	"github.com/pterm/pterm"
	"gitlab.com/tozd/go/errors"
)

// actionFor maps an operation type to its past-tense console label
func actionFor(opType operation.Type) string {
	switch opType {
	case operation.TypeMove:
		return "moved"
	case operation.TypeDelete:
		return "deleted"
	default:
		return "copied"
	}
}

// fileTracker pairs the progress event stream back into per-file
// outcomes for the console log. FileStarted names the file, byte events
// accumulate, FileCompleted or FileSkipped closes it out.
type fileTracker struct {
	action  string
	current string
	bytes   uint64
}

func (ft *fileTracker) observe(u operation.ProgressUpdate) (log.FileEvent, bool) {
	switch u.Kind {
	case operation.UpdateFileStarted:
		ft.current = u.File
		ft.bytes = 0
	case operation.UpdateBytesTransferred:
		ft.bytes += u.Bytes
	case operation.UpdateFileCompleted:
		ev := log.FileEvent{Path: ft.current, Action: ft.action, Bytes: ft.bytes}
		ft.current = ""
		ft.bytes = 0
		return ev, true
	case operation.UpdateFileSkipped:
		ft.current = ""
		ft.bytes = 0
		return log.FileEvent{Path: u.File, Action: "skipped", Skipped: true}, true
	}
	return log.FileEvent{}, false
}

// watchOperation drives one queued operation to completion: it drains
// progress events, renders them as a progress bar plus per-file lines,
// auto-answers paused errors with the configured action, and cancels on
// Ctrl-C.
func watchOperation(ctx context.Context, ro *opts.RootOpts, id operation.ID) error {
	snapshot, ok := ro.Manager.Operation(id)
	if !ok {
		return errors.Errorf("unknown operation %d", id)
	}

	ro.UserLogger.StartOperation(ctx, log.OperationBanner{
		Label:       snapshot.Type.String(),
		Sources:     len(snapshot.Sources),
		Destination: snapshot.Destination,
	})

	tracker := &fileTracker{action: actionFor(snapshot.Type)}
	drain := func() {
		for _, u := range ro.Manager.ProcessUpdates() {
			if u.ID != id {
				continue
			}
			if ev, ok := tracker.observe(u); ok {
				ro.UserLogger.LogFileEvent(ctx, ev)
			}
		}
	}

	bar, err := pterm.DefaultProgressbar.
		WithTotal(100).
		WithTitle(snapshot.Type.String()).
		Start()
	if err != nil {
		return errors.Errorf("starting progress bar: %w", err)
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	cancelled := false
	for {
		select {
		case <-ctx.Done():
			if !cancelled {
				ro.Manager.Cancel(id)
				cancelled = true
			}
			<-ticker.C
		case <-ticker.C:
		}

		drain()

		op, ok := ro.Manager.Operation(id)
		if !ok {
			break
		}

		if ro.Manager.IsPausedForError(id) && op.CurrentError != nil {
			ro.UserLogger.Warningf("%s: %s (answering %s)",
				op.CurrentError.FilePath, op.CurrentError.UserMessage(), ro.Config.OnError)
			ro.Manager.HandleErrorResponse(id, ro.Config.OnError)
		}

		title := op.Type.String()
		if op.Progress.CurrentFile != "" {
			title = title + " " + op.Progress.CurrentFile
		}
		bar.UpdateTitle(title)
		if delta := int(op.Progress.Percentage()) - bar.Current; delta > 0 {
			bar.Add(delta)
		}

		if op.Status.IsFinished() {
			break
		}
	}

	if _, err := bar.Stop(); err != nil {
		return errors.Errorf("stopping progress bar: %w", err)
	}

	if err := ro.Dispatcher.Wait(); err != nil {
		return errors.Errorf("waiting for workers: %w", err)
	}
	drain()
	ro.UserLogger.EndOperation(ctx)

	return reportOutcome(ro, id)
}

func reportOutcome(ro *opts.RootOpts, id operation.ID) error {
	op, ok := ro.Manager.Operation(id)
	if !ok {
		return nil
	}

	switch op.Status {
	case operation.StatusCompleted:
		if skipped := op.SkippedCount(); skipped > 0 {
			ro.UserLogger.Warningf("%s finished, %d file(s) skipped", op.Type, skipped)
		} else {
			ro.UserLogger.Successf("%s finished in %s", op.Type, op.Elapsed().Round(time.Millisecond))
		}
	case operation.StatusCancelled:
		ro.UserLogger.Warningf("%s cancelled", op.Type)
	case operation.StatusFailed:
		ro.UserLogger.Errorf("%s failed: %s", op.Type, op.FailureReason)
		return errors.Errorf("operation failed: %s", op.FailureReason)
	}

	ro.Manager.CleanupCompleted(ro.Config.CleanupMaxAge)
	return nil
}
