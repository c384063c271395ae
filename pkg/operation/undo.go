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
	"os"
	"path/filepath"
	"time"

	"gitlab.com/tozd/go/errors"
)

// MaxUndoHistory bounds the undo stack; pushing beyond it evicts the
// oldest entry.
const MaxUndoHistory = 50

// 🔖 UndoableKind tags an UndoableOperation descriptor
type UndoableKind int

const (
	UndoableCopy UndoableKind = iota
	UndoableMove
	UndoableRename
	UndoableDelete
)

// ⏪ UndoableOperation is an immutable descriptor of a successfully
// finished operation, carrying exactly the data needed to reverse it.
//
// Copy stores only the destination paths, not the original sources.
// That is why redo-after-undo is unsupported for Copy: the forward copy
// cannot be reconstructed.
type UndoableOperation struct {
	ID        ID
	Kind      UndoableKind
	Timestamp time.Time

	// CopiedPaths holds the destinations of a Copy (deleted on undo).
	CopiedPaths []string
	// OriginalPaths and NewPaths pair up for Move and Rename; for
	// Delete, OriginalPaths pairs with TrashPaths.
	OriginalPaths []string
	NewPaths      []string
	TrashPaths    []string
}

// NewCopyUndo describes a finished copy by its destination paths
func NewCopyUndo(id ID, copiedPaths []string) *UndoableOperation {
	return &UndoableOperation{
		ID:          id,
		Kind:        UndoableCopy,
		Timestamp:   time.Now(),
		CopiedPaths: copiedPaths,
	}
}

// NewMoveUndo describes a finished move by its path pairs
func NewMoveUndo(id ID, originalPaths, newPaths []string) *UndoableOperation {
	return &UndoableOperation{
		ID:            id,
		Kind:          UndoableMove,
		Timestamp:     time.Now(),
		OriginalPaths: originalPaths,
		NewPaths:      newPaths,
	}
}

// NewRenameUndo describes a finished rename
func NewRenameUndo(id ID, originalPath, newPath string) *UndoableOperation {
	return &UndoableOperation{
		ID:            id,
		Kind:          UndoableRename,
		Timestamp:     time.Now(),
		OriginalPaths: []string{originalPath},
		NewPaths:      []string{newPath},
	}
}

// NewDeleteUndo describes a finished delete-to-trash
func NewDeleteUndo(id ID, originalPaths, trashPaths []string) *UndoableOperation {
	return &UndoableOperation{
		ID:            id,
		Kind:          UndoableDelete,
		Timestamp:     time.Now(),
		OriginalPaths: originalPaths,
		TrashPaths:    trashPaths,
	}
}

// Description returns a short human label for undo/redo menus
func (u *UndoableOperation) Description() string {
	switch u.Kind {
	case UndoableCopy:
		return describeBatch("Copy", u.CopiedPaths)
	case UndoableMove:
		return describeBatch("Move", u.OriginalPaths)
	case UndoableRename:
		if len(u.OriginalPaths) == 0 || len(u.NewPaths) == 0 {
			return "Rename"
		}
		return fmt.Sprintf("Rename %q to %q",
			filepath.Base(u.OriginalPaths[0]), filepath.Base(u.NewPaths[0]))
	case UndoableDelete:
		return describeBatch("Delete", u.OriginalPaths)
	default:
		return "Unknown"
	}
}

func describeBatch(verb string, paths []string) string {
	if len(paths) == 1 {
		return fmt.Sprintf("%s %q", verb, filepath.Base(paths[0]))
	}
	return fmt.Sprintf("%s %d items", verb, len(paths))
}

// applyUndo executes the reversal of a descriptor against the real
// filesystem. Copy deletes what was copied; Move/Rename renames back;
// Delete restores from trash. Missing reversal targets mean the
// precondition no longer holds.
func applyUndo(u *UndoableOperation) error {
	switch u.Kind {
	case UndoableCopy:
		for _, path := range u.CopiedPaths {
			info, err := os.Stat(path)
			if os.IsNotExist(err) {
				continue
			}
			if err != nil {
				return errors.Errorf("%w: stating copied path %q: %w", ErrFileSystem, path, err)
			}
			if info.IsDir() {
				if err := os.RemoveAll(path); err != nil {
					return errors.Errorf("%w: removing copied directory %q: %w", ErrFileSystem, path, err)
				}
			} else if err := os.Remove(path); err != nil {
				return errors.Errorf("%w: removing copied file %q: %w", ErrFileSystem, path, err)
			}
		}
		return nil

	case UndoableMove, UndoableRename:
		return renameBack(u.NewPaths, u.OriginalPaths)

	case UndoableDelete:
		return renameBack(u.TrashPaths, u.OriginalPaths)

	default:
		return errors.Errorf("%w: unknown descriptor kind %d", ErrNotReversible, u.Kind)
	}
}

// applyRedo re-applies the forward direction of an undone descriptor.
// Copy is deliberately not redoable: the descriptor never retained the
// original source paths.
func applyRedo(u *UndoableOperation) error {
	switch u.Kind {
	case UndoableCopy:
		return errors.Errorf("%w: copy operations cannot be redone after undo", ErrNotReversible)

	case UndoableMove, UndoableRename:
		return renameBack(u.OriginalPaths, u.NewPaths)

	case UndoableDelete:
		return renameBack(u.OriginalPaths, u.TrashPaths)

	default:
		return errors.Errorf("%w: unknown descriptor kind %d", ErrNotReversible, u.Kind)
	}
}

// renameBack renames each from-path to its paired to-path, creating
// parent directories as needed. A missing from-path fails the whole
// reversal.
func renameBack(from, to []string) error {
	n := len(from)
	if len(to) < n {
		n = len(to)
	}
	for i := 0; i < n; i++ {
		if _, err := os.Stat(from[i]); os.IsNotExist(err) {
			return errors.Errorf("%w: %q no longer exists", ErrNotReversible, from[i])
		}
		if parent := filepath.Dir(to[i]); parent != "" {
			if err := os.MkdirAll(parent, 0755); err != nil {
				return errors.Errorf("%w: creating parent directory %q: %w", ErrFileSystem, parent, err)
			}
		}
		if err := os.Rename(from[i], to[i]); err != nil {
			return errors.Errorf("%w: renaming %q to %q: %w", ErrFileSystem, from[i], to[i], err)
		}
	}
	return nil
}
