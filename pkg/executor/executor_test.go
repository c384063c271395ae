package executor_test

import (
	"context"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/orbitfm/fileops/pkg/executor"
	"github.com/orbitfm/fileops/pkg/operation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0644))
}

func kinds(updates []operation.ProgressUpdate) []operation.UpdateKind {
	out := make([]operation.UpdateKind, 0, len(updates))
	for _, u := range updates {
		out = append(out, u.Kind)
	}
	return out
}

// 🧪 TestExecuteCopySingleFile tests the canonical event sequence for a
// one-file copy and that the byte events sum to the file size
func TestExecuteCopySingleFile(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "src", "file.bin")
	dstDir := filepath.Join(tmp, "dst")
	writeFile(t, src, 1000)
	require.NoError(t, os.MkdirAll(dstDir, 0755))

	queue := operation.NewProgressQueue()
	engine := executor.NewEngine(queue)
	engine.ChunkSize = 256 // force multiple chunks

	copied := engine.ExecuteCopy(context.Background(), 1, []string{src}, dstDir, operation.NewCancellationToken(), nil)

	require.Equal(t, []string{filepath.Join(dstDir, "file.bin")}, copied)
	data, err := os.ReadFile(copied[0])
	require.NoError(t, err)
	assert.Len(t, data, 1000)

	updates := queue.Drain()
	require.NotEmpty(t, updates)
	assert.Equal(t, operation.UpdateStarted, updates[0].Kind)
	assert.Equal(t, operation.UpdateFileStarted, updates[1].Kind)
	assert.Equal(t, "file.bin", updates[1].File)
	assert.Equal(t, operation.UpdateCompleted, updates[len(updates)-1].Kind)
	assert.Equal(t, operation.UpdateFileCompleted, updates[len(updates)-2].Kind)

	var total uint64
	var byteEvents int
	for _, u := range updates {
		if u.Kind == operation.UpdateBytesTransferred {
			total += u.Bytes
			byteEvents++
		}
	}
	assert.Equal(t, uint64(1000), total)
	assert.GreaterOrEqual(t, byteEvents, 4)
}

// 🧪 TestExecuteCopyDirectory tests recursive copies preserve the tree
func TestExecuteCopyDirectory(t *testing.T) {
	tmp := t.TempDir()
	srcDir := filepath.Join(tmp, "src", "project")
	writeFile(t, filepath.Join(srcDir, "a.txt"), 10)
	writeFile(t, filepath.Join(srcDir, "sub", "b.txt"), 20)
	dstDir := filepath.Join(tmp, "dst")
	require.NoError(t, os.MkdirAll(dstDir, 0755))

	queue := operation.NewProgressQueue()
	engine := executor.NewEngine(queue)

	copied := engine.ExecuteCopy(context.Background(), 1, []string{srcDir}, dstDir, operation.NewCancellationToken(), nil)

	require.Len(t, copied, 1)
	assert.FileExists(t, filepath.Join(dstDir, "project", "a.txt"))
	assert.FileExists(t, filepath.Join(dstDir, "project", "sub", "b.txt"))

	// One FileStarted per top-level source, not per inner file.
	var started int
	var total uint64
	for _, u := range queue.Drain() {
		switch u.Kind {
		case operation.UpdateFileStarted:
			started++
		case operation.UpdateBytesTransferred:
			total += u.Bytes
		}
	}
	assert.Equal(t, 1, started)
	assert.Equal(t, uint64(30), total)
}

// 🧪 TestExecuteCopySkipOnError tests that a missing source resolved
// with Skip still lets the operation complete
func TestExecuteCopySkipOnError(t *testing.T) {
	tmp := t.TempDir()
	good := filepath.Join(tmp, "good.txt")
	missing := filepath.Join(tmp, "missing.txt")
	dstDir := filepath.Join(tmp, "dst")
	writeFile(t, good, 5)
	require.NoError(t, os.MkdirAll(dstDir, 0755))

	queue := operation.NewProgressQueue()
	engine := executor.NewEngine(queue)

	// Pre-load the skip decision so the worker never blocks.
	responses := make(chan operation.ErrorResponse, 1)
	responses <- operation.ErrorResponse{ID: 1, Action: operation.ActionSkip}

	copied := engine.ExecuteCopy(context.Background(), 1, []string{missing, good}, dstDir, operation.NewCancellationToken(), responses)

	require.Equal(t, []string{filepath.Join(dstDir, "good.txt")}, copied)

	seq := kinds(queue.Drain())
	assert.Contains(t, seq, operation.UpdateError)
	assert.Contains(t, seq, operation.UpdateFileSkipped)
	assert.Equal(t, operation.UpdateCompleted, seq[len(seq)-1])
}

func TestExecuteCopyRetryAfterFix(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "late.txt")
	dstDir := filepath.Join(tmp, "dst")
	require.NoError(t, os.MkdirAll(dstDir, 0755))

	queue := operation.NewProgressQueue()
	engine := executor.NewEngine(queue)

	// The first attempt fails; the retry decision arrives after the
	// source has been created, so the second attempt succeeds.
	responses := make(chan operation.ErrorResponse, 1)
	go func() {
		time.Sleep(50 * time.Millisecond)
		writeFile(t, src, 5)
		responses <- operation.ErrorResponse{ID: 1, Action: operation.ActionRetry}
	}()

	copied := engine.ExecuteCopy(context.Background(), 1, []string{src}, dstDir, operation.NewCancellationToken(), responses)

	require.Len(t, copied, 1)
	assert.FileExists(t, filepath.Join(dstDir, "late.txt"))
}

func TestExecuteCopyCancelDecision(t *testing.T) {
	tmp := t.TempDir()
	missing := filepath.Join(tmp, "missing.txt")
	never := filepath.Join(tmp, "never.txt")
	writeFile(t, never, 5)
	dstDir := filepath.Join(tmp, "dst")
	require.NoError(t, os.MkdirAll(dstDir, 0755))

	queue := operation.NewProgressQueue()
	engine := executor.NewEngine(queue)
	token := operation.NewCancellationToken()

	responses := make(chan operation.ErrorResponse, 1)
	responses <- operation.ErrorResponse{ID: 1, Action: operation.ActionCancel}

	copied := engine.ExecuteCopy(context.Background(), 1, []string{missing, never}, dstDir, token, responses)

	assert.Empty(t, copied)
	assert.True(t, token.IsCancelled())
	assert.NoFileExists(t, filepath.Join(dstDir, "never.txt"))

	seq := kinds(queue.Drain())
	assert.Equal(t, operation.UpdateCancelled, seq[len(seq)-1])
}

// 🧪 TestExecuteCopyCancelledUpFront tests that a pre-cancelled token
// stops the operation before any file is touched
func TestExecuteCopyCancelledUpFront(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "file.txt")
	dstDir := filepath.Join(tmp, "dst")
	writeFile(t, src, 100)
	require.NoError(t, os.MkdirAll(dstDir, 0755))

	queue := operation.NewProgressQueue()
	engine := executor.NewEngine(queue)
	token := operation.NewCancellationToken()
	token.Cancel()

	copied := engine.ExecuteCopy(context.Background(), 1, []string{src}, dstDir, token, nil)

	assert.Empty(t, copied)
	assert.NoFileExists(t, filepath.Join(dstDir, "file.txt"))

	seq := kinds(queue.Drain())
	require.Len(t, seq, 2)
	assert.Equal(t, operation.UpdateStarted, seq[0])
	assert.Equal(t, operation.UpdateCancelled, seq[1])
}

// 🧪 TestExecuteCopyCancelMidFile tests that cancelling while a file is
// streaming removes the partially written destination
func TestExecuteCopyCancelMidFile(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "big.bin")
	dstDir := filepath.Join(tmp, "dst")
	writeFile(t, src, 1024*1024)
	require.NoError(t, os.MkdirAll(dstDir, 0755))

	queue := operation.NewProgressQueue()
	engine := executor.NewEngine(queue)
	engine.ChunkSize = 1 // one event per byte keeps the copy observable

	token := operation.NewCancellationToken()
	done := make(chan []string, 1)
	go func() {
		done <- engine.ExecuteCopy(context.Background(), 1, []string{src}, dstDir, token, nil)
	}()

	// Wait until the stream is clearly mid-file, then pull the plug.
	for queue.Len() < 1000 {
		time.Sleep(time.Millisecond)
	}
	token.Cancel()

	copied := <-done
	assert.Empty(t, copied)
	assert.NoFileExists(t, filepath.Join(dstDir, "big.bin"))

	seq := kinds(queue.Drain())
	assert.Equal(t, operation.UpdateCancelled, seq[len(seq)-1])
	assert.NotContains(t, seq, operation.UpdateFileCompleted)
}

// 🧪 TestExecuteMove tests the rename fast path and the once-per-source
// FileStarted invariant
func TestExecuteMove(t *testing.T) {
	tmp := t.TempDir()
	a := filepath.Join(tmp, "a.txt")
	b := filepath.Join(tmp, "b.txt")
	dstDir := filepath.Join(tmp, "dst")
	writeFile(t, a, 10)
	writeFile(t, b, 20)
	require.NoError(t, os.MkdirAll(dstDir, 0755))

	queue := operation.NewProgressQueue()
	engine := executor.NewEngine(queue)

	moved := engine.ExecuteMove(context.Background(), 1,
		executor.PairsForDestination([]string{a, b}, dstDir),
		operation.NewCancellationToken(), nil)

	require.Len(t, moved, 2)
	assert.NoFileExists(t, a)
	assert.NoFileExists(t, b)
	assert.FileExists(t, filepath.Join(dstDir, "a.txt"))
	assert.FileExists(t, filepath.Join(dstDir, "b.txt"))

	var started, completed int
	for _, k := range kinds(queue.Drain()) {
		switch k {
		case operation.UpdateFileStarted:
			started++
		case operation.UpdateFileCompleted:
			completed++
		}
	}
	assert.Equal(t, 2, started)
	assert.Equal(t, 2, completed)
}

// 🧪 TestExecuteMoveCrossDevice tests the copy-then-remove fallback when
// the fast-path rename fails with EXDEV
func TestExecuteMoveCrossDevice(t *testing.T) {
	tmp := t.TempDir()
	a := filepath.Join(tmp, "a.txt")
	dir := filepath.Join(tmp, "dir")
	dstDir := filepath.Join(tmp, "dst")
	writeFile(t, a, 100)
	writeFile(t, filepath.Join(dir, "inner.txt"), 50)
	require.NoError(t, os.MkdirAll(dstDir, 0755))

	queue := operation.NewProgressQueue()
	engine := executor.NewEngine(queue)
	engine.Rename = func(oldpath, newpath string) error {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: syscall.EXDEV}
	}

	moved := engine.ExecuteMove(context.Background(), 1,
		executor.PairsForDestination([]string{a, dir}, dstDir),
		operation.NewCancellationToken(), nil)

	require.Len(t, moved, 2)
	assert.NoFileExists(t, a)
	assert.NoDirExists(t, dir)
	assert.FileExists(t, filepath.Join(dstDir, "a.txt"))
	assert.FileExists(t, filepath.Join(dstDir, "dir", "inner.txt"))

	// Still one FileStarted and one FileCompleted per source, with the
	// fallback's byte stream in between.
	var started, completed int
	var total uint64
	for _, u := range queue.Drain() {
		switch u.Kind {
		case operation.UpdateFileStarted:
			started++
		case operation.UpdateFileCompleted:
			completed++
		case operation.UpdateBytesTransferred:
			total += u.Bytes
		}
	}
	assert.Equal(t, 2, started)
	assert.Equal(t, 2, completed)
	assert.Equal(t, uint64(150), total)
}

// 🧪 TestExecuteDelete tests trash-routed removal and the returned
// original-to-trash mapping
func TestExecuteDelete(t *testing.T) {
	tmp := t.TempDir()
	victim := filepath.Join(tmp, "victim.txt")
	trashDir := filepath.Join(tmp, "trash")
	writeFile(t, victim, 10)
	require.NoError(t, os.MkdirAll(trashDir, 0755))

	queue := operation.NewProgressQueue()
	engine := executor.NewEngine(queue)

	remove := func(path string) (string, error) {
		target := filepath.Join(trashDir, filepath.Base(path))
		return target, os.Rename(path, target)
	}

	removed := engine.ExecuteDelete(context.Background(), 1, []string{victim}, operation.NewCancellationToken(), nil, remove)

	require.Len(t, removed, 1)
	assert.Equal(t, victim, removed[0].Source)
	assert.FileExists(t, removed[0].Destination)
	assert.NoFileExists(t, victim)
}

func TestExecuteDeletePermanent(t *testing.T) {
	tmp := t.TempDir()
	victim := filepath.Join(tmp, "dir")
	writeFile(t, filepath.Join(victim, "inner.txt"), 10)

	queue := operation.NewProgressQueue()
	engine := executor.NewEngine(queue)

	removed := engine.ExecuteDelete(context.Background(), 1, []string{victim}, operation.NewCancellationToken(), nil, nil)

	require.Len(t, removed, 1)
	assert.Empty(t, removed[0].Destination)
	assert.NoDirExists(t, victim)
}

// 🧪 TestAwaitActionTimeout tests the default-to-skip path when no
// decision ever arrives
func TestAwaitActionTimeout(t *testing.T) {
	tmp := t.TempDir()
	missing := filepath.Join(tmp, "missing.txt")
	dstDir := filepath.Join(tmp, "dst")
	require.NoError(t, os.MkdirAll(dstDir, 0755))

	queue := operation.NewProgressQueue()
	engine := executor.NewEngine(queue)
	engine.ResponseTimeout = 20 * time.Millisecond

	responses := make(chan operation.ErrorResponse) // nothing ever sent

	copied := engine.ExecuteCopy(context.Background(), 1, []string{missing}, dstDir, operation.NewCancellationToken(), responses)

	assert.Empty(t, copied)
	seq := kinds(queue.Drain())
	assert.Contains(t, seq, operation.UpdateFileSkipped)
	assert.Equal(t, operation.UpdateCompleted, seq[len(seq)-1])
}

func TestCalculateTotalSize(t *testing.T) {
	tmp := t.TempDir()
	writeFile(t, filepath.Join(tmp, "a.txt"), 100)
	writeFile(t, filepath.Join(tmp, "dir", "b.txt"), 200)
	writeFile(t, filepath.Join(tmp, "dir", "sub", "c.txt"), 300)

	files, bytes := executor.CalculateTotalSize([]string{
		filepath.Join(tmp, "a.txt"),
		filepath.Join(tmp, "dir"),
	})

	assert.Equal(t, 3, files)
	assert.Equal(t, uint64(600), bytes)

	// Missing paths are counted as nothing, not an error.
	files, bytes = executor.CalculateTotalSize([]string{filepath.Join(tmp, "nope")})
	assert.Zero(t, files)
	assert.Zero(t, bytes)
}
