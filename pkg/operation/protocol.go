package operation

import "sync"

// 📨 UpdateKind tags a ProgressUpdate event
type UpdateKind int

const (
	UpdateStarted UpdateKind = iota
	UpdateFileStarted
	UpdateBytesTransferred
	UpdateFileCompleted
	UpdateFileSkipped
	UpdateError
	UpdateCompleted
	UpdateCancelled
)

// 📬 ProgressUpdate is one event of the closed progress protocol,
// flowing one-way from the execution engine to the Manager. Every event
// carries the ID of the operation it belongs to; File, Bytes and Err
// are populated per kind.
type ProgressUpdate struct {
	Kind  UpdateKind
	ID    ID
	File  string
	Bytes uint64
	Err   *OperationError
}

// StartedUpdate marks the operation as running
func StartedUpdate(id ID) ProgressUpdate {
	return ProgressUpdate{Kind: UpdateStarted, ID: id}
}

// FileStartedUpdate announces work on a named file
func FileStartedUpdate(id ID, file string) ProgressUpdate {
	return ProgressUpdate{Kind: UpdateFileStarted, ID: id, File: file}
}

// BytesUpdate reports bytes moved since the previous event
func BytesUpdate(id ID, bytes uint64) ProgressUpdate {
	return ProgressUpdate{Kind: UpdateBytesTransferred, ID: id, Bytes: bytes}
}

// FileCompletedUpdate marks the current file as done
func FileCompletedUpdate(id ID) ProgressUpdate {
	return ProgressUpdate{Kind: UpdateFileCompleted, ID: id}
}

// FileSkippedUpdate records a file skipped after an error decision
func FileSkippedUpdate(id ID, file string) ProgressUpdate {
	return ProgressUpdate{Kind: UpdateFileSkipped, ID: id, File: file}
}

// ErrorUpdate surfaces a per-file failure awaiting a user decision
func ErrorUpdate(id ID, err *OperationError) ProgressUpdate {
	return ProgressUpdate{Kind: UpdateError, ID: id, Err: err}
}

// CompletedUpdate is the terminal success event
func CompletedUpdate(id ID) ProgressUpdate {
	return ProgressUpdate{Kind: UpdateCompleted, ID: id}
}

// CancelledUpdate is the terminal event after a cooperative abort
func CancelledUpdate(id ID) ProgressUpdate {
	return ProgressUpdate{Kind: UpdateCancelled, ID: id}
}

// 📮 ProgressQueue is the unbounded multi-producer/single-consumer
// mailbox between workers and the Manager. Sends never block and never
// apply backpressure; Drain never blocks and returns whatever is
// currently queued. Per-producer ordering is preserved because Send
// appends under one lock.
type ProgressQueue struct {
	mu      sync.Mutex
	updates []ProgressUpdate
}

// NewProgressQueue creates an empty mailbox
func NewProgressQueue() *ProgressQueue {
	return &ProgressQueue{}
}

// Send enqueues an event. Fire-and-forget: it never blocks.
func (q *ProgressQueue) Send(update ProgressUpdate) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.updates = append(q.updates, update)
}

// Drain removes and returns all currently queued events
func (q *ProgressQueue) Drain() []ProgressUpdate {
	q.mu.Lock()
	defer q.mu.Unlock()
	drained := q.updates
	q.updates = nil
	return drained
}

// Len returns the number of queued events
func (q *ProgressQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.updates)
}
