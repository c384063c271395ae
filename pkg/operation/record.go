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

import "time"

// 📄 FileOperation is the mutable record of one in-flight or finished
// operation. Records are owned exclusively by the Manager and mutated
// only through progress protocol application or direct control calls.
type FileOperation struct {
	ID            ID
	Type          Type
	Sources       []string
	Destination   string // empty for delete
	Progress      Progress
	Status        Status
	FailureReason string
	StartedAt     time.Time
	CompletedAt   time.Time
	CurrentError  *OperationError
	ErrorState    ErrorHandlingState
}

// NewFileOperation creates a Pending record
func NewFileOperation(id ID, opType Type, sources []string, destination string) *FileOperation {
	return &FileOperation{
		ID:          id,
		Type:        opType,
		Sources:     sources,
		Destination: destination,
		Status:      StatusPending,
	}
}

// Start transitions the record to Running
func (op *FileOperation) Start() {
	if op.Status.IsFinished() {
		return
	}
	op.Status = StatusRunning
	op.StartedAt = time.Now()
}

// Complete transitions the record to the terminal Completed state
func (op *FileOperation) Complete() {
	if op.Status.IsFinished() {
		return
	}
	op.Status = StatusCompleted
	op.CompletedAt = time.Now()
}

// Fail transitions the record to the terminal Failed state
func (op *FileOperation) Fail(reason string) {
	if op.Status.IsFinished() {
		return
	}
	op.Status = StatusFailed
	op.FailureReason = reason
	op.CompletedAt = time.Now()
}

// Cancel transitions the record to the terminal Cancelled state
func (op *FileOperation) Cancel() {
	if op.Status.IsFinished() {
		return
	}
	op.Status = StatusCancelled
	op.CompletedAt = time.Now()
}

// PauseForError parks the operation awaiting a Skip/Retry/Cancel decision
func (op *FileOperation) PauseForError(err *OperationError) {
	if op.Status.IsFinished() {
		return
	}
	op.CurrentError = err
	op.ErrorState.SetPaused(true)
	op.Status = StatusPaused
}

// ResumeFromError applies a user decision to a paused operation. Cancel
// does not resume; the caller cancels the record separately.
func (op *FileOperation) ResumeFromError(action ErrorAction) {
	op.ErrorState.SetResponse(action)
	if action != ActionCancel && !op.Status.IsFinished() {
		op.Status = StatusRunning
	}
	op.CurrentError = nil
}

// IsPausedForError reports whether the record awaits an error decision
func (op *FileOperation) IsPausedForError() bool {
	return op.ErrorState.PausedForError
}

// SkippedCount returns how many files were skipped after errors
func (op *FileOperation) SkippedCount() int {
	return op.ErrorState.SkippedCount
}

// Elapsed returns the operation's wall-clock duration so far
func (op *FileOperation) Elapsed() time.Duration {
	switch {
	case op.StartedAt.IsZero():
		return 0
	case op.CompletedAt.IsZero():
		return time.Since(op.StartedAt)
	default:
		return op.CompletedAt.Sub(op.StartedAt)
	}
}

// 🛟 ErrorHandlingState tracks the pause/decision cycle and the files
// skipped over the lifetime of one operation. Skipped files never
// downgrade a Completed result.
type ErrorHandlingState struct {
	PausedForError bool
	SkippedCount   int
	SkippedFiles   []string

	pendingResponse ErrorAction
	hasResponse     bool
}

// SetPaused flips the paused-for-error flag
func (s *ErrorHandlingState) SetPaused(paused bool) {
	s.PausedForError = paused
}

// SetResponse records a decision and clears the paused flag
func (s *ErrorHandlingState) SetResponse(action ErrorAction) {
	s.pendingResponse = action
	s.hasResponse = true
	s.PausedForError = false
}

// TakeResponse consumes the pending decision, if any
func (s *ErrorHandlingState) TakeResponse() (ErrorAction, bool) {
	if !s.hasResponse {
		return 0, false
	}
	s.hasResponse = false
	return s.pendingResponse, true
}

// AddSkipped records a file skipped after an error
func (s *ErrorHandlingState) AddSkipped(path string) {
	s.SkippedCount++
	s.SkippedFiles = append(s.SkippedFiles, path)
}

// Reset clears the pause state and any pending decision
func (s *ErrorHandlingState) Reset() {
	s.PausedForError = false
	s.hasResponse = false
}
