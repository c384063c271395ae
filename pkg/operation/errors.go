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
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// Undo/redo error classes. FileSystem failures wrap the underlying I/O
// error; NotReversible means the precondition for reversal no longer
// holds (target vanished, or the operation type cannot be redone).
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
	ErrNotReversible = errors.New("operation not reversible")
	ErrFileSystem    = errors.New("filesystem error")
)

// 🏷️ ErrorKind categorizes an operation error for user feedback
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindPermissionDenied
	KindFileNotFound
	KindAlreadyExists
	KindDiskFull
	KindNetworkError
	KindReadOnly
	KindInUse
	KindInvalidPath
)

// String returns a string representation of ErrorKind
func (k ErrorKind) String() string {
	switch k {
	case KindPermissionDenied:
		return "permission_denied"
	case KindFileNotFound:
		return "file_not_found"
	case KindAlreadyExists:
		return "already_exists"
	case KindDiskFull:
		return "disk_full"
	case KindNetworkError:
		return "network_error"
	case KindReadOnly:
		return "read_only"
	case KindInUse:
		return "in_use"
	case KindInvalidPath:
		return "invalid_path"
	default:
		return "unknown"
	}
}

// ⚠️ OperationError is a structured per-file failure. Recoverable means
// Retry or Skip is a meaningful next action; the classification is kept
// alongside the message so the decision point never sees an opaque
// string.
type OperationError struct {
	FilePath    string
	Message     string
	Recoverable bool
	Kind        ErrorKind
}

// NewOperationError builds an error with an Unknown kind
func NewOperationError(path, message string, recoverable bool) *OperationError {
	return &OperationError{
		FilePath:    path,
		Message:     message,
		Recoverable: recoverable,
		Kind:        KindUnknown,
	}
}

// FromIOError classifies an underlying I/O error. Permission-denied,
// already-exists and not-found are the recoverable classes.
func FromIOError(path string, err error) *OperationError {
	kind := KindUnknown
	recoverable := false

	switch {
	case os.IsPermission(err):
		kind, recoverable = KindPermissionDenied, true
	case os.IsExist(err):
		kind, recoverable = KindAlreadyExists, true
	case os.IsNotExist(err):
		kind, recoverable = KindFileNotFound, true
	case errors.Is(err, fs.ErrInvalid):
		kind, recoverable = KindInvalidPath, false
	default:
		msg := strings.ToLower(err.Error())
		switch {
		case strings.Contains(msg, "no space") || strings.Contains(msg, "disk full"):
			kind = KindDiskFull
		case strings.Contains(msg, "network") || strings.Contains(msg, "connection"):
			kind, recoverable = KindNetworkError, true
		case strings.Contains(msg, "read-only") || strings.Contains(msg, "readonly"):
			kind = KindReadOnly
		case strings.Contains(msg, "in use") || strings.Contains(msg, "locked") || strings.Contains(msg, "busy"):
			kind, recoverable = KindInUse, true
		}
	}

	return &OperationError{
		FilePath:    path,
		Message:     err.Error(),
		Recoverable: recoverable,
		Kind:        kind,
	}
}

// Error implements the error interface
func (e *OperationError) Error() string {
	return fmt.Sprintf("%s: %s", e.FilePath, e.Message)
}

// UserMessage returns a user-friendly description of the error
func (e *OperationError) UserMessage() string {
	switch e.Kind {
	case KindPermissionDenied:
		return fmt.Sprintf("Permission denied: %s", e.FilePath)
	case KindFileNotFound:
		return fmt.Sprintf("File not found: %s", e.FilePath)
	case KindAlreadyExists:
		return fmt.Sprintf("File already exists: %s", e.FilePath)
	case KindDiskFull:
		return "Not enough disk space to complete the operation"
	case KindNetworkError:
		return fmt.Sprintf("Network error accessing: %s", e.FilePath)
	case KindReadOnly:
		return fmt.Sprintf("Destination is read-only: %s", e.FilePath)
	case KindInUse:
		return fmt.Sprintf("File is in use: %s", e.FilePath)
	case KindInvalidPath:
		return fmt.Sprintf("Invalid path: %s", e.FilePath)
	default:
		return e.Message
	}
}
