// Package file implements local filesystem data discovery for the batch
// loader: walking a data root and opening individual files.
package file

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DataExt is the extension recognized by List. The corpus is JSON-only.
const DataExt = ".json"

// List recursively walks root and returns the absolute paths of all files
// whose extension matches ext (case-insensitive). Paths are lexically
// sorted, so a run's progress reporting is reproducible.
//
// A missing or empty root is a valid, non-fatal case and yields zero paths
// with a nil error. Errors on individual entries (permission, transient
// stat failures) abort the walk.
func List(root, ext string) ([]string, error) {
	if ext == "" {
		ext = DataExt
	}
	ext = strings.ToLower(ext)

	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: not a directory", root)
	}

	var out []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.ToLower(filepath.Ext(d.Name())) != ext {
			return nil
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		out = append(out, abs)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(out)
	return out, nil
}

// Open opens one discovered file for reading.
//
// Behavior:
//   - If ctx is already canceled, Open returns the context error without
//     touching the filesystem.
//   - Any filesystem error is wrapped with the path for context, while
//     still permitting errors.Is/As checks by callers.
func Open(ctx context.Context, path string) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}
