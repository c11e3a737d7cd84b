package geodata

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const tempSuffix = ".tmp"

// LocalTarget 本地文件系统后端
//
// Artifacts live directly under Dir; relative artifact paths resolve
// against it. Commits go through a temp file in the same directory plus a
// single rename, so a crash mid-apply leaves at worst an orphaned *.tmp,
// which the next run's Ping sweeps away.
type LocalTarget struct {
	Dir string
}

func NewLocalTarget(dir string) *LocalTarget {
	return &LocalTarget{Dir: dir}
}

func (t *LocalTarget) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(t.Dir, path)
}

// Ping ensures the data directory exists and removes temp files orphaned
// by an interrupted earlier run.
func (t *LocalTarget) Ping(ctx context.Context) error {
	if err := os.MkdirAll(t.Dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrChannelUnavailable, err)
	}
	entries, err := os.ReadDir(t.Dir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrChannelUnavailable, err)
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), tempSuffix) {
			os.Remove(filepath.Join(t.Dir, e.Name()))
		}
	}
	return nil
}

func (t *LocalTarget) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(t.resolve(path))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, &TransportError{Op: "exists", Path: path, Err: err}
}

func (t *LocalTarget) Read(ctx context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(t.resolve(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, &TransportError{Op: "read", Path: path, Err: err}
	}
	return data, nil
}

// Commit writes data to a temp file next to the final path and renames it
// over the target. The temp file never survives: renamed on success,
// removed on any failure.
func (t *LocalTarget) Commit(ctx context.Context, data []byte, path string) error {
	dst := t.resolve(path)
	tmp := dst + tempSuffix

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		os.Remove(tmp)
		return &TransportError{Op: "commit", Path: path, Err: err}
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return &TransportError{Op: "commit", Path: path, Err: err}
	}
	return nil
}
