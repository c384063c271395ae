package executor

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/orbitfm/fileops/pkg/operation"
	"gitlab.com/tozd/go/errors"
)

// copyPath copies a file or directory tree from src to dst, emitting a
// Bytes event per chunk written
func (e *Engine) copyPath(id operation.ID, src, dst string, token *operation.CancellationToken) error {
	info, err := os.Stat(src)
	if err != nil {
		return errors.Errorf("reading source: %w", err)
	}
	if info.IsDir() {
		return e.copyDir(id, src, dst, token)
	}
	return e.copyFile(id, src, dst, info.Mode().Perm(), token)
}

// copyFile streams src to dst in ChunkSize chunks. The token is checked
// before every chunk; on cancellation the partially written destination
// is removed so no truncated file is left behind.
func (e *Engine) copyFile(id operation.ID, src, dst string, perm fs.FileMode, token *operation.CancellationToken) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Errorf("opening source: %w", err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return errors.Errorf("creating destination parent: %w", err)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return errors.Errorf("creating destination: %w", err)
	}

	chunkSize := e.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	buf := make([]byte, chunkSize)

	for {
		if token != nil && token.IsCancelled() {
			out.Close()
			os.Remove(dst)
			return ErrCancelled
		}

		n, readErr := in.Read(buf)
		if n > 0 {
			if _, writeErr := out.Write(buf[:n]); writeErr != nil {
				out.Close()
				os.Remove(dst)
				return errors.Errorf("writing destination: %w", writeErr)
			}
			e.queue.Send(operation.BytesUpdate(id, uint64(n)))
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			out.Close()
			os.Remove(dst)
			return errors.Errorf("reading source: %w", readErr)
		}
	}

	if err := out.Close(); err != nil {
		os.Remove(dst)
		return errors.Errorf("closing destination: %w", err)
	}
	return nil
}

// copyDir mirrors the tree rooted at src under dst, preserving directory
// permissions and copying files chunk by chunk
func (e *Engine) copyDir(id operation.ID, src, dst string, token *operation.CancellationToken) error {
	return filepath.WalkDir(src, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return errors.Errorf("walking %s: %w", path, err)
		}
		if token != nil && token.IsCancelled() {
			return ErrCancelled
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return errors.Errorf("relativizing %s: %w", path, err)
		}
		target := filepath.Join(dst, rel)

		if entry.IsDir() {
			info, err := entry.Info()
			if err != nil {
				return errors.Errorf("reading %s: %w", path, err)
			}
			if err := os.MkdirAll(target, info.Mode().Perm()); err != nil {
				return errors.Errorf("creating %s: %w", target, err)
			}
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			return errors.Errorf("reading %s: %w", path, err)
		}
		return e.copyFile(id, path, target, info.Mode().Perm(), token)
	})
}

// isCrossDevice reports whether a rename failed because source and
// destination live on different filesystems
func isCrossDevice(err error) bool {
	if errors.Is(err, syscall.EXDEV) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "cross-device")
}
