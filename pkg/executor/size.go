package executor

import (
	"io/fs"
	"os"
	"path/filepath"
)

// CalculateTotalSize walks the given paths and returns the number of
// files and total bytes they hold. Unreadable entries are counted as
// zero bytes rather than failing the whole pre-flight; the totals feed
// progress reporting, not correctness.
func CalculateTotalSize(paths []string) (int, uint64) {
	var files int
	var bytes uint64

	for _, path := range paths {
		info, err := os.Lstat(path)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			files++
			bytes += uint64(info.Size())
			continue
		}

		_ = filepath.WalkDir(path, func(p string, entry fs.DirEntry, err error) error {
			if err != nil || entry.IsDir() {
				return nil
			}
			files++
			if fi, err := entry.Info(); err == nil {
				bytes += uint64(fi.Size())
			}
			return nil
		})
	}

	return files, bytes
}
