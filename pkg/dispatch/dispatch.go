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

// 🚚 Package dispatch turns queued operations into running workers. It
// owns the pre-flight steps (exclusion filtering, conflict resolution,
// size calculation), hands the resolved plan to the execution engine on
// a bounded worker pool, and records undo descriptors for whatever
// actually happened on disk.
package dispatch

import (
	"context"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/orbitfm/fileops/pkg/conflict"
	"github.com/orbitfm/fileops/pkg/executor"
	"github.com/orbitfm/fileops/pkg/operation"
	"github.com/orbitfm/fileops/pkg/trash"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// ErrConflictCancelled is returned when the conflict decider aborts the
// whole operation before anything was queued
var ErrConflictCancelled = errors.New("operation cancelled at conflict resolution")

// ErrNothingToDo is returned when filtering and conflict resolution
// leave no sources to operate on
var ErrNothingToDo = errors.New("no sources left after filtering")

// Options configures a Dispatcher
type Options struct {
	// Workers bounds how many operations run concurrently. Zero means
	// unbounded.
	Workers int

	// Trash routes deletes into the application trash when set; nil
	// deletes permanently and forfeits delete undo.
	Trash *trash.Trash

	// Exclude holds doublestar patterns matched against each source's
	// slash path and base name. Matching sources are silently dropped.
	Exclude []string

	// Decider answers destination conflicts. Nil skips every conflict.
	Decider conflict.Decider
}

// 🔧 Dispatcher is the bridge between the Manager's control surface and
// the execution engine
type Dispatcher struct {
	manager *operation.Manager
	engine  *executor.Engine
	trash   *trash.Trash
	exclude []string
	decider conflict.Decider
	group   *errgroup.Group
}

// New creates a dispatcher around an existing manager
func New(manager *operation.Manager, opts Options) *Dispatcher {
	group := &errgroup.Group{}
	if opts.Workers > 0 {
		group.SetLimit(opts.Workers)
	}
	decider := opts.Decider
	if decider == nil {
		decider = conflict.StaticDecider(conflict.ResolutionSkip)
	}
	return &Dispatcher{
		manager: manager,
		engine:  executor.NewEngine(manager.Queue()),
		trash:   opts.Trash,
		exclude: opts.Exclude,
		decider: decider,
		group:   group,
	}
}

// Engine exposes the underlying engine for tuning
func (d *Dispatcher) Engine() *executor.Engine {
	return d.engine
}

// Wait blocks until every launched worker has finished
func (d *Dispatcher) Wait() error {
	return d.group.Wait()
}

func (d *Dispatcher) filterExcluded(ctx context.Context, sources []string) []string {
	if len(d.exclude) == 0 {
		return sources
	}
	logger := zerolog.Ctx(ctx)

	kept := make([]string, 0, len(sources))
	for _, src := range sources {
		if d.isExcluded(src) {
			logger.Debug().Str("source", src).Msg("excluded by pattern")
			continue
		}
		kept = append(kept, src)
	}
	return kept
}

func (d *Dispatcher) isExcluded(path string) bool {
	slashed := filepath.ToSlash(path)
	base := filepath.Base(path)
	for _, pattern := range d.exclude {
		if ok, _ := doublestar.Match(pattern, slashed); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

// plan resolves conflicts into concrete source/destination pairs plus
// the set of existing destinations to remove first (replace decisions)
func (d *Dispatcher) plan(sources []string, destination string) (pairs []executor.Pair, preRemove []string, err error) {
	collisions := make(map[string]conflict.Conflict)
	for _, c := range conflict.Detect(sources, destination) {
		collisions[c.Source] = c
	}

	resolver := conflict.NewResolver(d.decider)
	for _, src := range sources {
		dst := filepath.Join(destination, filepath.Base(src))
		if c, ok := collisions[src]; ok {
			switch resolver.Resolve(c) {
			case conflict.ResolutionSkip:
				continue
			case conflict.ResolutionCancel:
				return nil, nil, ErrConflictCancelled
			case conflict.ResolutionKeepBoth:
				dst = conflict.UniquePath(dst)
			case conflict.ResolutionReplace:
				preRemove = append(preRemove, dst)
			}
		}
		pairs = append(pairs, executor.Pair{Source: src, Destination: dst})
	}
	return pairs, preRemove, nil
}

func removeAll(paths []string) error {
	for _, p := range paths {
		if err := os.RemoveAll(p); err != nil {
			return errors.Errorf("clearing destination %s: %w", p, err)
		}
	}
	return nil
}

func checkDestination(destination string) error {
	info, err := os.Stat(destination)
	if err != nil {
		return errors.Errorf("destination unavailable: %w", err)
	}
	if !info.IsDir() {
		return errors.Errorf("destination is not a directory: %s", destination)
	}
	return nil
}

// Copy queues and launches a copy of sources into destination. It
// returns as soon as the worker is scheduled; progress arrives through
// the manager's queue.
func (d *Dispatcher) Copy(ctx context.Context, sources []string, destination string) (operation.ID, error) {
	sources = d.filterExcluded(ctx, sources)
	pairs, preRemove, err := d.plan(sources, destination)
	if err != nil {
		return 0, err
	}
	if len(pairs) == 0 {
		return 0, ErrNothingToDo
	}

	id := d.manager.Copy(sources, destination)
	planned := make([]string, 0, len(pairs))
	for _, p := range pairs {
		planned = append(planned, p.Source)
	}
	files, bytes := executor.CalculateTotalSize(planned)
	d.manager.SetTotals(id, files, bytes)

	token, _ := d.manager.Token(id)
	responses, _ := d.manager.ErrorResponses(id)

	d.group.Go(func() error {
		if err := checkDestination(destination); err != nil {
			d.manager.Fail(id, err.Error())
			return nil
		}
		if err := removeAll(preRemove); err != nil {
			d.manager.Fail(id, err.Error())
			return nil
		}

		copied := d.engine.ExecuteCopyPlan(ctx, id, pairs, token, responses)
		if len(copied) > 0 && (token == nil || !token.IsCancelled()) {
			d.manager.PushUndoable(operation.NewCopyUndo(id, copied))
		}
		return nil
	})
	return id, nil
}

// Move queues and launches a move of sources into destination
func (d *Dispatcher) Move(ctx context.Context, sources []string, destination string) (operation.ID, error) {
	sources = d.filterExcluded(ctx, sources)
	pairs, preRemove, err := d.plan(sources, destination)
	if err != nil {
		return 0, err
	}
	if len(pairs) == 0 {
		return 0, ErrNothingToDo
	}

	id := d.manager.MoveFiles(sources, destination)
	planned := make([]string, 0, len(pairs))
	for _, p := range pairs {
		planned = append(planned, p.Source)
	}
	files, bytes := executor.CalculateTotalSize(planned)
	d.manager.SetTotals(id, files, bytes)

	token, _ := d.manager.Token(id)
	responses, _ := d.manager.ErrorResponses(id)

	d.group.Go(func() error {
		if err := checkDestination(destination); err != nil {
			d.manager.Fail(id, err.Error())
			return nil
		}
		if err := removeAll(preRemove); err != nil {
			d.manager.Fail(id, err.Error())
			return nil
		}

		moved := d.engine.ExecuteMove(ctx, id, pairs, token, responses)
		if len(moved) > 0 && (token == nil || !token.IsCancelled()) {
			originals := make([]string, 0, len(moved))
			newPaths := make([]string, 0, len(moved))
			for _, m := range moved {
				originals = append(originals, m.Source)
				newPaths = append(newPaths, m.Destination)
			}
			d.manager.PushUndoable(operation.NewMoveUndo(id, originals, newPaths))
		}
		return nil
	})
	return id, nil
}

// Delete queues and launches removal of sources. With a trash configured
// each entry is moved there and the deletion is undoable; without one
// the removal is permanent.
func (d *Dispatcher) Delete(ctx context.Context, sources []string) (operation.ID, error) {
	sources = d.filterExcluded(ctx, sources)
	if len(sources) == 0 {
		return 0, ErrNothingToDo
	}

	id := d.manager.Delete(sources)
	d.manager.SetTotals(id, len(sources), 0)

	token, _ := d.manager.Token(id)
	responses, _ := d.manager.ErrorResponses(id)

	var remove executor.RemoveFunc
	if d.trash != nil {
		remove = d.trash.Put
	}

	d.group.Go(func() error {
		removed := d.engine.ExecuteDelete(ctx, id, sources, token, responses, remove)

		// Only trash-routed removals can be undone.
		var originals, trashPaths []string
		for _, r := range removed {
			if r.Destination == "" {
				continue
			}
			originals = append(originals, r.Source)
			trashPaths = append(trashPaths, r.Destination)
		}
		if len(originals) > 0 && (token == nil || !token.IsCancelled()) {
			d.manager.PushUndoable(operation.NewDeleteUndo(id, originals, trashPaths))
		}
		return nil
	})
	return id, nil
}

// Rename renames a single entry in place, synchronously, and records it
// in the undo log. Refuses to overwrite an existing target.
func (d *Dispatcher) Rename(ctx context.Context, oldPath, newPath string) error {
	if _, err := os.Lstat(newPath); err == nil {
		return errors.Errorf("target already exists: %s", newPath)
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		return errors.Errorf("renaming: %w", err)
	}
	zerolog.Ctx(ctx).Debug().Str("from", oldPath).Str("to", newPath).Msg("renamed")

	// Renames bypass the async pipeline but still join the undo history
	// under a real operation identity.
	d.manager.RecordRename(oldPath, newPath)
	return nil
}
