// Copyright 2025 orbitfm
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package operation

import (
	"sync"
	"sync/atomic"
	"time"
)

// 🔧 Manager is the single owner of all operation records, cancellation
// tokens and the undo/redo log. It allocates identities, drains the
// progress queue, and exposes the control surface (queue, cancel, skip,
// retry, undo, redo) to the host.
//
// The Manager performs no filesystem I/O of its own; only the undo/redo
// reversal calls touch the disk.
type Manager struct {
	mu         sync.Mutex
	operations []*FileOperation
	tokens     map[ID]*CancellationToken
	responses  map[ID]chan ErrorResponse
	queue      *ProgressQueue
	nextID     atomic.Uint64

	undoStack []*UndoableOperation
	redoStack []*UndoableOperation
}

// NewManager creates an empty manager with a fresh progress queue
func NewManager() *Manager {
	return &Manager{
		tokens:    make(map[ID]*CancellationToken),
		responses: make(map[ID]chan ErrorResponse),
		queue:     NewProgressQueue(),
	}
}

// Queue returns the progress mailbox workers send into
func (m *Manager) Queue() *ProgressQueue {
	return m.queue
}

func (m *Manager) allocateID() ID {
	return ID(m.nextID.Add(1))
}

func (m *Manager) register(opType Type, sources []string, destination string) ID {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.allocateID()
	m.operations = append(m.operations, NewFileOperation(id, opType, sources, destination))
	m.tokens[id] = NewCancellationToken()
	// One pending decision per pause is the invariant, so a single
	// buffered slot never drops a response.
	m.responses[id] = make(chan ErrorResponse, 1)
	return id
}

// Copy queues a copy operation. No I/O occurs until a worker picks it up.
func (m *Manager) Copy(sources []string, destination string) ID {
	return m.register(TypeCopy, sources, destination)
}

// MoveFiles queues a move operation
func (m *Manager) MoveFiles(sources []string, destination string) ID {
	return m.register(TypeMove, sources, destination)
}

// Delete queues a delete operation
func (m *Manager) Delete(sources []string) ID {
	return m.register(TypeDelete, sources, "")
}

// Token returns the cancellation token for an operation
func (m *Manager) Token(id ID) (*CancellationToken, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, ok := m.tokens[id]
	return token, ok
}

// ErrorResponses returns the decision channel an executor waits on
func (m *Manager) ErrorResponses(id ID) (<-chan ErrorResponse, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.responses[id]
	return ch, ok
}

// Cancel sets the token for id and marks the record Cancelled. Idempotent;
// a no-op on operations that already reached a terminal status.
func (m *Manager) Cancel(id ID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if token, ok := m.tokens[id]; ok {
		token.Cancel()
	}
	if op := m.find(id); op != nil {
		op.Cancel()
	}
}

// Fail marks the record Failed with the given reason. Used by the
// dispatch layer when the engine returns a hard I/O error.
func (m *Manager) Fail(id ID, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if op := m.find(id); op != nil {
		op.Fail(reason)
	}
}

// SetTotals seeds the progress counters from a pre-flight size walk
func (m *Manager) SetTotals(id ID, totalFiles int, totalBytes uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if op := m.find(id); op != nil {
		op.Progress.TotalFiles = totalFiles
		op.Progress.TotalBytes = totalBytes
	}
}

// ClearError removes the current error from the record, used after Skip
func (m *Manager) ClearError(id ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if op := m.find(id); op != nil {
		op.CurrentError = nil
	}
}

// HandleErrorResponse is the sole bridge between user decisions and
// execution state. Skip records the skipped file and resumes; Retry
// resumes so the current file is attempted again; Cancel is equivalent
// to Cancel(id).
func (m *Manager) HandleErrorResponse(id ID, action ErrorAction) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Unblock the executor first, whatever the decision.
	if ch, ok := m.responses[id]; ok {
		select {
		case ch <- ErrorResponse{ID: id, Action: action}:
		default:
		}
	}

	op := m.find(id)
	if op == nil {
		return
	}
	switch action {
	case ActionSkip:
		if op.CurrentError != nil {
			op.ErrorState.AddSkipped(op.CurrentError.FilePath)
		}
		op.ResumeFromError(action)
	case ActionRetry:
		op.ResumeFromError(action)
	case ActionCancel:
		op.ResumeFromError(action)
		if token, ok := m.tokens[id]; ok {
			token.Cancel()
		}
		op.Cancel()
	}
}

// ProcessUpdates drains all currently queued progress events and applies
// each to its target record. Non-blocking; the host calls it periodically
// and may render the returned events.
func (m *Manager) ProcessUpdates() []ProgressUpdate {
	updates := m.queue.Drain()

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, update := range updates {
		m.applyUpdate(update)
	}
	return updates
}

func (m *Manager) applyUpdate(update ProgressUpdate) {
	op := m.find(update.ID)
	if op == nil {
		return
	}

	switch update.Kind {
	case UpdateStarted:
		op.Start()
	case UpdateFileStarted:
		op.Progress.CurrentFile = update.File
	case UpdateBytesTransferred:
		op.Progress.TransferredBytes += update.Bytes
		op.Progress.UpdateSpeed(op.Progress.TransferredBytes, op.Elapsed())
	case UpdateFileCompleted:
		op.Progress.CompletedFiles++
		op.Progress.CurrentFile = ""
	case UpdateFileSkipped:
		op.ErrorState.AddSkipped(update.File)
		op.Progress.CurrentFile = ""
	case UpdateError:
		// A decision the executor never consumed (it timed out and
		// defaulted to skip) must not answer this new pause.
		if ch, ok := m.responses[update.ID]; ok {
			select {
			case <-ch:
			default:
			}
		}
		op.PauseForError(update.Err)
	case UpdateCompleted:
		op.Complete()
	case UpdateCancelled:
		op.Cancel()
	}
}

func (m *Manager) find(id ID) *FileOperation {
	for _, op := range m.operations {
		if op.ID == id {
			return op
		}
	}
	return nil
}

// Operation returns a read-only snapshot of one record
func (m *Manager) Operation(id ID) (FileOperation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if op := m.find(id); op != nil {
		return *op, true
	}
	return FileOperation{}, false
}

// Operations returns read-only snapshots of every record
func (m *Manager) Operations() []FileOperation {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := make([]FileOperation, 0, len(m.operations))
	for _, op := range m.operations {
		snapshot = append(snapshot, *op)
	}
	return snapshot
}

// ActiveOperations returns snapshots of the non-finished records
func (m *Manager) ActiveOperations() []FileOperation {
	m.mu.Lock()
	defer m.mu.Unlock()

	var active []FileOperation
	for _, op := range m.operations {
		if op.Status.IsActive() {
			active = append(active, *op)
		}
	}
	return active
}

// HasActiveOperations reports whether any operation is still in flight
func (m *Manager) HasActiveOperations() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, op := range m.operations {
		if op.Status.IsActive() {
			return true
		}
	}
	return false
}

// ActiveCount returns the number of in-flight operations
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, op := range m.operations {
		if op.Status.IsActive() {
			count++
		}
	}
	return count
}

// IsPausedForError reports whether the operation awaits an error decision
func (m *Manager) IsPausedForError(id ID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if op := m.find(id); op != nil {
		return op.IsPausedForError()
	}
	return false
}

// CleanupCompleted removes finished records older than maxAge, along
// with their now-orphaned tokens and response channels.
func (m *Manager) CleanupCompleted(maxAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.operations[:0]
	for _, op := range m.operations {
		if op.Status.IsFinished() && !op.CompletedAt.IsZero() && time.Since(op.CompletedAt) >= maxAge {
			delete(m.tokens, op.ID)
			delete(m.responses, op.ID)
			continue
		}
		kept = append(kept, op)
	}
	m.operations = kept
}

// RecordRename allocates an identity for a synchronous rename and logs
// its descriptor in the undo history. Renames carry no record or token;
// only the undo entry survives.
func (m *Manager) RecordRename(oldPath, newPath string) ID {
	id := m.allocateID()
	m.PushUndoable(NewRenameUndo(id, oldPath, newPath))
	return id
}

// PushUndoable appends a descriptor to the undo stack. Any push clears
// the redo stack entirely: a new action invalidates the redo future.
// The stack is trimmed from the front beyond MaxUndoHistory.
func (m *Manager) PushUndoable(u *UndoableOperation) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.redoStack = nil
	m.undoStack = append(m.undoStack, u)
	if excess := len(m.undoStack) - MaxUndoHistory; excess > 0 {
		m.undoStack = append([]*UndoableOperation(nil), m.undoStack[excess:]...)
	}
}

// CanUndo reports whether an operation can be undone
func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undoStack) > 0
}

// CanRedo reports whether an undone operation can be redone
func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redoStack) > 0
}

// UndoDescription returns the label of the next operation to undo
func (m *Manager) UndoDescription() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.undoStack) == 0 {
		return "", false
	}
	return m.undoStack[len(m.undoStack)-1].Description(), true
}

// RedoDescription returns the label of the next operation to redo
func (m *Manager) RedoDescription() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.redoStack) == 0 {
		return "", false
	}
	return m.redoStack[len(m.redoStack)-1].Description(), true
}

// UndoDepth returns the number of undoable entries
func (m *Manager) UndoDepth() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undoStack)
}

// RedoDepth returns the number of redoable entries
func (m *Manager) RedoDepth() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redoStack)
}

// Undo pops the most recent descriptor, executes its reversal against
// the filesystem, and on success pushes it onto the redo stack. The
// attempt is consumed either way: a failed reversal is a terminal
// notice, not a retryable state.
func (m *Manager) Undo() (*UndoableOperation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.undoStack) == 0 {
		return nil, ErrNothingToUndo
	}
	u := m.undoStack[len(m.undoStack)-1]
	m.undoStack = m.undoStack[:len(m.undoStack)-1]

	if err := applyUndo(u); err != nil {
		return nil, err
	}
	m.redoStack = append(m.redoStack, u)
	return u, nil
}

// Redo pops from the redo stack, re-applies the forward direction, and
// pushes the descriptor back onto the undo stack. Copy redo always
// fails with ErrNotReversible.
func (m *Manager) Redo() (*UndoableOperation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.redoStack) == 0 {
		return nil, ErrNothingToRedo
	}
	u := m.redoStack[len(m.redoStack)-1]
	m.redoStack = m.redoStack[:len(m.redoStack)-1]

	if err := applyRedo(u); err != nil {
		return nil, err
	}
	m.undoStack = append(m.undoStack, u)
	return u, nil
}

// ClearHistory empties both stacks
func (m *Manager) ClearHistory() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.undoStack = nil
	m.redoStack = nil
}
