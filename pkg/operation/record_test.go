package operation_test

import (
	"testing"

	"github.com/orbitfm/fileops/pkg/operation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 🧪 TestFileOperationLifecycle tests the Pending → Running → Completed path
func TestFileOperationLifecycle(t *testing.T) {
	op := operation.NewFileOperation(1, operation.TypeCopy, []string{"/src"}, "/dst")

	assert.Equal(t, operation.StatusPending, op.Status)
	assert.True(t, op.StartedAt.IsZero())

	op.Start()
	assert.Equal(t, operation.StatusRunning, op.Status)
	assert.False(t, op.StartedAt.IsZero())

	op.Complete()
	assert.Equal(t, operation.StatusCompleted, op.Status)
	assert.False(t, op.CompletedAt.IsZero())
}

// 🧪 TestFileOperationTerminalIsSticky tests that no record leaves a
// terminal state
func TestFileOperationTerminalIsSticky(t *testing.T) {
	tests := []struct {
		name     string
		finish   func(*operation.FileOperation)
		terminal operation.Status
	}{
		{"completed", func(op *operation.FileOperation) { op.Complete() }, operation.StatusCompleted},
		{"failed", func(op *operation.FileOperation) { op.Fail("boom") }, operation.StatusFailed},
		{"cancelled", func(op *operation.FileOperation) { op.Cancel() }, operation.StatusCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := operation.NewFileOperation(1, operation.TypeMove, []string{"/src"}, "/dst")
			op.Start()
			tt.finish(op)
			require.Equal(t, tt.terminal, op.Status)

			op.Start()
			op.Complete()
			op.Cancel()
			op.PauseForError(operation.NewOperationError("/x", "late", true))
			assert.Equal(t, tt.terminal, op.Status)
		})
	}
}

func TestStatusPredicates(t *testing.T) {
	assert.True(t, operation.StatusPending.IsActive())
	assert.True(t, operation.StatusRunning.IsActive())
	assert.True(t, operation.StatusPaused.IsActive())
	assert.False(t, operation.StatusCompleted.IsActive())
	assert.False(t, operation.StatusFailed.IsActive())
	assert.False(t, operation.StatusCancelled.IsActive())

	assert.True(t, operation.StatusCompleted.IsFinished())
	assert.True(t, operation.StatusFailed.IsFinished())
	assert.True(t, operation.StatusCancelled.IsFinished())
	assert.False(t, operation.StatusPaused.IsFinished())
}

// 🧪 TestPauseAndResume tests the Paused ↔ Running error cycle
func TestPauseAndResume(t *testing.T) {
	op := operation.NewFileOperation(1, operation.TypeCopy, []string{"/src"}, "/dst")
	op.Start()

	opErr := operation.NewOperationError("/src/file.txt", "test error", true)
	op.PauseForError(opErr)

	assert.Equal(t, operation.StatusPaused, op.Status)
	assert.True(t, op.IsPausedForError())
	assert.NotNil(t, op.CurrentError)

	op.ResumeFromError(operation.ActionSkip)

	assert.Equal(t, operation.StatusRunning, op.Status)
	assert.False(t, op.IsPausedForError())
	assert.Nil(t, op.CurrentError)
}

func TestResumeFromErrorCancelDoesNotResume(t *testing.T) {
	op := operation.NewFileOperation(1, operation.TypeCopy, []string{"/src"}, "/dst")
	op.Start()
	op.PauseForError(operation.NewOperationError("/src/file.txt", "test error", true))

	op.ResumeFromError(operation.ActionCancel)

	assert.False(t, op.IsPausedForError())
	assert.NotEqual(t, operation.StatusRunning, op.Status)
}

func TestErrorHandlingState(t *testing.T) {
	var state operation.ErrorHandlingState

	state.SetPaused(true)
	assert.True(t, state.PausedForError)

	state.SetResponse(operation.ActionRetry)
	assert.False(t, state.PausedForError)

	action, ok := state.TakeResponse()
	require.True(t, ok)
	assert.Equal(t, operation.ActionRetry, action)

	_, ok = state.TakeResponse()
	assert.False(t, ok)

	state.AddSkipped("/a")
	state.AddSkipped("/b")
	assert.Equal(t, 2, state.SkippedCount)
	assert.Len(t, state.SkippedFiles, 2)
}
