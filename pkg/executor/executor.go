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

package executor

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/orbitfm/fileops/pkg/operation"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

const (
	// DefaultChunkSize is the copy buffer size. Cancellation is checked
	// between chunks, so this bounds abort latency per file.
	DefaultChunkSize = 64 * 1024

	// DefaultResponseTimeout bounds how long a worker waits for an error
	// decision before defaulting to skip.
	DefaultResponseTimeout = 5 * time.Minute
)

// ErrCancelled is returned from filesystem helpers when the cancellation
// token was observed mid-operation
var ErrCancelled = errors.New("operation cancelled")

// 📦 Pair binds one source path to its resolved destination. Conflict
// resolution may rewrite the destination (unique names for keep-both),
// which is why the engine accepts explicit pairs rather than deriving
// destinations itself.
type Pair struct {
	Source      string
	Destination string
}

// PairsForDestination derives one pair per source under a destination
// directory, the default when no conflict rewrote anything
func PairsForDestination(sources []string, destination string) []Pair {
	pairs := make([]Pair, 0, len(sources))
	for _, src := range sources {
		pairs = append(pairs, Pair{Source: src, Destination: filepath.Join(destination, filepath.Base(src))})
	}
	return pairs
}

// RemoveFunc removes one path during a delete operation. It returns the
// path the entry now lives at when the removal is a trash move, or ""
// for a permanent delete.
type RemoveFunc func(path string) (string, error)

// 🏭 Engine executes queued operations against the filesystem, streaming
// progress events into the Manager's mailbox. It holds no operation
// state of its own; everything it learns flows out as events.
type Engine struct {
	queue *operation.ProgressQueue

	// ChunkSize is the copy buffer size in bytes
	ChunkSize int

	// ResponseTimeout is how long to await an error decision
	ResponseTimeout time.Duration

	// Rename is the fast-path move primitive, os.Rename unless replaced
	Rename func(oldpath, newpath string) error
}

// NewEngine creates an engine that reports into the given mailbox
func NewEngine(queue *operation.ProgressQueue) *Engine {
	return &Engine{
		queue:           queue,
		ChunkSize:       DefaultChunkSize,
		ResponseTimeout: DefaultResponseTimeout,
		Rename:          os.Rename,
	}
}

type stepResult int

const (
	stepDone stepResult = iota
	stepSkipped
	stepCancelled
)

// attemptWithRecovery runs one per-file attempt through the interactive
// error protocol. Failures surface as Error events; the decision arriving
// on responses selects retry, skip or cancel. No response within
// ResponseTimeout means skip.
func (e *Engine) attemptWithRecovery(id operation.ID, token *operation.CancellationToken, responses <-chan operation.ErrorResponse, path string, attempt func() error) stepResult {
	for {
		if token != nil && token.IsCancelled() {
			return stepCancelled
		}

		err := attempt()
		if err == nil {
			return stepDone
		}
		if errors.Is(err, ErrCancelled) {
			return stepCancelled
		}

		e.queue.Send(operation.ErrorUpdate(id, operation.FromIOError(path, err)))

		switch e.awaitAction(responses, token) {
		case operation.ActionRetry:
			continue
		case operation.ActionCancel:
			if token != nil {
				token.Cancel()
			}
			return stepCancelled
		default:
			return stepSkipped
		}
	}
}

func (e *Engine) awaitAction(responses <-chan operation.ErrorResponse, token *operation.CancellationToken) operation.ErrorAction {
	if responses == nil {
		return operation.ActionSkip
	}

	timeout := e.ResponseTimeout
	if timeout <= 0 {
		timeout = DefaultResponseTimeout
	}
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	// Cancel may arrive via the token alone, without a response on the
	// channel, so the token is polled while waiting.
	poll := time.NewTicker(50 * time.Millisecond)
	defer poll.Stop()

	for {
		select {
		case resp := <-responses:
			return resp.Action
		case <-deadline.C:
			return operation.ActionSkip
		case <-poll.C:
			if token != nil && token.IsCancelled() {
				return operation.ActionCancel
			}
		}
	}
}

// ExecuteCopy copies each source into the destination directory
func (e *Engine) ExecuteCopy(ctx context.Context, id operation.ID, sources []string, destination string, token *operation.CancellationToken, responses <-chan operation.ErrorResponse) []string {
	return e.ExecuteCopyPlan(ctx, id, PairsForDestination(sources, destination), token, responses)
}

// ExecuteCopyPlan copies each pair's source to its resolved destination,
// emitting the full progress event sequence. The returned slice holds
// the destinations that were fully written, in order; the dispatch
// layer records them for undo.
func (e *Engine) ExecuteCopyPlan(ctx context.Context, id operation.ID, pairs []Pair, token *operation.CancellationToken, responses <-chan operation.ErrorResponse) []string {
	logger := zerolog.Ctx(ctx)
	e.queue.Send(operation.StartedUpdate(id))

	var copied []string
	for _, pair := range pairs {
		if token != nil && token.IsCancelled() {
			e.queue.Send(operation.CancelledUpdate(id))
			return copied
		}

		e.queue.Send(operation.FileStartedUpdate(id, filepath.Base(pair.Source)))

		src, dst := pair.Source, pair.Destination
		switch e.attemptWithRecovery(id, token, responses, src, func() error {
			return e.copyPath(id, src, dst, token)
		}) {
		case stepDone:
			copied = append(copied, dst)
			e.queue.Send(operation.FileCompletedUpdate(id))
		case stepSkipped:
			e.queue.Send(operation.FileSkippedUpdate(id, src))
			logger.Debug().Str("source", src).Msg("skipped after error")
		case stepCancelled:
			e.queue.Send(operation.CancelledUpdate(id))
			return copied
		}
	}

	e.queue.Send(operation.CompletedUpdate(id))
	logger.Debug().Int("copied", len(copied)).Msg("copy finished")
	return copied
}

// ExecuteMove moves each pair's source to its destination. A plain rename
// is attempted first; when the destination is on a different filesystem
// the move degrades to copy-then-remove. Exactly one FileStarted and at
// most one FileCompleted is emitted per source either way.
func (e *Engine) ExecuteMove(ctx context.Context, id operation.ID, pairs []Pair, token *operation.CancellationToken, responses <-chan operation.ErrorResponse) []Pair {
	logger := zerolog.Ctx(ctx)
	e.queue.Send(operation.StartedUpdate(id))

	var moved []Pair
	for _, pair := range pairs {
		if token != nil && token.IsCancelled() {
			e.queue.Send(operation.CancelledUpdate(id))
			return moved
		}

		e.queue.Send(operation.FileStartedUpdate(id, filepath.Base(pair.Source)))

		src, dst := pair.Source, pair.Destination
		switch e.attemptWithRecovery(id, token, responses, src, func() error {
			return e.movePath(id, src, dst, token)
		}) {
		case stepDone:
			moved = append(moved, pair)
			e.queue.Send(operation.FileCompletedUpdate(id))
		case stepSkipped:
			e.queue.Send(operation.FileSkippedUpdate(id, src))
		case stepCancelled:
			e.queue.Send(operation.CancelledUpdate(id))
			return moved
		}
	}

	e.queue.Send(operation.CompletedUpdate(id))
	logger.Debug().Int("moved", len(moved)).Msg("move finished")
	return moved
}

func (e *Engine) movePath(id operation.ID, src, dst string, token *operation.CancellationToken) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return errors.Errorf("creating destination parent: %w", err)
	}

	rename := e.Rename
	if rename == nil {
		rename = os.Rename
	}
	err := rename(src, dst)
	if err == nil {
		return nil
	}
	if !isCrossDevice(err) {
		return errors.Errorf("renaming %s: %w", src, err)
	}

	// Cross-device fallback: copy everything first, then drop the source.
	// The source survives intact if the copy aborts partway.
	if err := e.copyPath(id, src, dst, token); err != nil {
		return err
	}
	if err := os.RemoveAll(src); err != nil {
		return errors.Errorf("removing source after copy: %w", err)
	}
	return nil
}

// ExecuteDelete removes each source, routing each through remove. When
// remove is nil the delete is permanent. Returned pairs map each removed
// original to its trash location ("" for permanent deletes).
func (e *Engine) ExecuteDelete(ctx context.Context, id operation.ID, sources []string, token *operation.CancellationToken, responses <-chan operation.ErrorResponse, remove RemoveFunc) []Pair {
	logger := zerolog.Ctx(ctx)
	e.queue.Send(operation.StartedUpdate(id))

	if remove == nil {
		remove = func(path string) (string, error) {
			return "", os.RemoveAll(path)
		}
	}

	var removed []Pair
	for _, src := range sources {
		if token != nil && token.IsCancelled() {
			e.queue.Send(operation.CancelledUpdate(id))
			return removed
		}

		e.queue.Send(operation.FileStartedUpdate(id, filepath.Base(src)))

		var trashPath string
		switch e.attemptWithRecovery(id, token, responses, src, func() error {
			var err error
			trashPath, err = remove(src)
			return err
		}) {
		case stepDone:
			removed = append(removed, Pair{Source: src, Destination: trashPath})
			e.queue.Send(operation.FileCompletedUpdate(id))
		case stepSkipped:
			e.queue.Send(operation.FileSkippedUpdate(id, src))
		case stepCancelled:
			e.queue.Send(operation.CancelledUpdate(id))
			return removed
		}
	}

	e.queue.Send(operation.CompletedUpdate(id))
	logger.Debug().Int("removed", len(removed)).Msg("delete finished")
	return removed
}
