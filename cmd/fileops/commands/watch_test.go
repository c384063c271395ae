package commands

import (
	"testing"

	"github.com/orbitfm/fileops/pkg/log"
	"github.com/orbitfm/fileops/pkg/operation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 🧪 TestFileTracker tests pairing the progress event stream back into
// per-file console lines
func TestFileTracker(t *testing.T) {
	tracker := &fileTracker{action: actionFor(operation.TypeCopy)}

	updates := []operation.ProgressUpdate{
		operation.StartedUpdate(1),
		operation.FileStartedUpdate(1, "a.txt"),
		operation.BytesUpdate(1, 600),
		operation.BytesUpdate(1, 400),
		operation.FileCompletedUpdate(1),
		operation.FileStartedUpdate(1, "b.txt"),
		operation.FileSkippedUpdate(1, "/src/b.txt"),
		operation.CompletedUpdate(1),
	}

	var events []log.FileEvent
	for _, u := range updates {
		if ev, ok := tracker.observe(u); ok {
			events = append(events, ev)
		}
	}

	require.Len(t, events, 2)
	assert.Equal(t, log.FileEvent{Path: "a.txt", Action: "copied", Bytes: 1000}, events[0])
	assert.Equal(t, log.FileEvent{Path: "/src/b.txt", Action: "skipped", Skipped: true}, events[1])
}

func TestActionFor(t *testing.T) {
	assert.Equal(t, "copied", actionFor(operation.TypeCopy))
	assert.Equal(t, "moved", actionFor(operation.TypeMove))
	assert.Equal(t, "deleted", actionFor(operation.TypeDelete))
}
