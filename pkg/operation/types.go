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
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 🔑 ID is an opaque, monotonically increasing identifier for a file
// operation, unique for the process lifetime. IDs are allocated
// exclusively by the Manager.
type ID uint64

// 📦 Type is the kind of file operation
type Type int

const (
	TypeCopy Type = iota
	TypeMove
	TypeDelete
)

// String returns the progressive-tense label used in progress panels
func (t Type) String() string {
	switch t {
	case TypeCopy:
		return "Copying"
	case TypeMove:
		return "Moving"
	case TypeDelete:
		return "Deleting"
	default:
		return "Unknown"
	}
}

// 📊 Status is the lifecycle state of an operation.
//
// Valid transitions: Pending → Running → {Completed | Failed | Cancelled},
// with Paused reachable from Running when a per-file error awaits a user
// decision, and Running reachable again from Paused after Skip or Retry.
// Completed, Failed and Cancelled are terminal.
type Status int

const (
	StatusPending Status = iota
	StatusRunning
	StatusPaused
	StatusCompleted
	StatusFailed
	StatusCancelled
)

// String returns a string representation of Status
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusPaused:
		return "paused"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// IsActive reports whether the operation is still in flight
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusRunning || s == StatusPaused
}

// IsFinished reports whether the operation has reached a terminal state
func (s Status) IsFinished() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// 🎯 ErrorAction is a user decision for an operation paused on an error
type ErrorAction int

const (
	ActionSkip ErrorAction = iota
	ActionRetry
	ActionCancel
)

// String returns a string representation of ErrorAction
func (a ErrorAction) String() string {
	switch a {
	case ActionSkip:
		return "skip"
	case ActionRetry:
		return "retry"
	case ActionCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// ParseErrorAction maps a config string to an ErrorAction
func ParseErrorAction(s string) (ErrorAction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "skip":
		return ActionSkip, nil
	case "retry":
		return ActionRetry, nil
	case "cancel":
		return ActionCancel, nil
	default:
		return ActionSkip, errors.Errorf("unknown error action %q", s)
	}
}

// ErrorResponse carries a user decision back to a paused operation
type ErrorResponse struct {
	ID     ID
	Action ErrorAction
}
