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

// 🗑️ Package trash implements the application trash directory. Deletes
// are renames into this directory, which keeps them cheap and reversible;
// the undo log records where each entry came from.
package trash

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/orbitfm/fileops/pkg/conflict"
	"gitlab.com/tozd/go/errors"
)

// Trash is a directory that holds deleted entries until emptied
type Trash struct {
	dir string
}

// New opens the trash at dir, creating it when missing
func New(dir string) (*Trash, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.Errorf("creating trash directory: %w", err)
	}
	return &Trash{dir: dir}, nil
}

// Dir returns the trash directory path
func (t *Trash) Dir() string {
	return t.dir
}

// Put moves path into the trash and returns where it now lives. A name
// collision inside the trash gets a unique sibling name so nothing is
// ever overwritten.
func (t *Trash) Put(path string) (string, error) {
	target := filepath.Join(t.dir, filepath.Base(path))
	if _, err := os.Lstat(target); err == nil {
		target = conflict.UniquePath(target)
	}
	if err := os.Rename(path, target); err != nil {
		return "", errors.Errorf("moving to trash: %w", err)
	}
	return target, nil
}

// Item is one trashed entry
type Item struct {
	Name    string
	Path    string
	Size    int64
	IsDir   bool
	ModTime time.Time
}

// Items lists the trash contents, newest first
func (t *Trash) Items() ([]Item, error) {
	entries, err := os.ReadDir(t.dir)
	if err != nil {
		return nil, errors.Errorf("reading trash directory: %w", err)
	}

	items := make([]Item, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		items = append(items, Item{
			Name:    entry.Name(),
			Path:    filepath.Join(t.dir, entry.Name()),
			Size:    info.Size(),
			IsDir:   entry.IsDir(),
			ModTime: info.ModTime(),
		})
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].ModTime.After(items[j].ModTime)
	})
	return items, nil
}

// Restore moves a trashed entry back to the given path, refusing to
// overwrite anything already there
func (t *Trash) Restore(name, to string) error {
	src := filepath.Join(t.dir, name)
	if _, err := os.Lstat(src); err != nil {
		return errors.Errorf("locating trashed entry: %w", err)
	}
	if _, err := os.Lstat(to); err == nil {
		return errors.Errorf("restore target already exists: %s", to)
	}
	if err := os.MkdirAll(filepath.Dir(to), 0755); err != nil {
		return errors.Errorf("creating restore parent: %w", err)
	}
	if err := os.Rename(src, to); err != nil {
		return errors.Errorf("restoring from trash: %w", err)
	}
	return nil
}

// Empty permanently removes everything in the trash
func (t *Trash) Empty() error {
	entries, err := os.ReadDir(t.dir)
	if err != nil {
		return errors.Errorf("reading trash directory: %w", err)
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(t.dir, entry.Name())); err != nil {
			return errors.Errorf("removing %s: %w", entry.Name(), err)
		}
	}
	return nil
}
