package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"slidesmith/internal/services"
)

// Local serves files straight from the filesystem.
type Local struct{}

// NewLocal returns a filesystem-backed client.
func NewLocal() *Local {
	return &Local{}
}

func (l *Local) List(ctx context.Context, dir string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrNotFound, "storage", "list", fmt.Sprintf("folder %q does not exist", dir), err)
		}
		return nil, fmt.Errorf("read directory %q: %w", dir, err)
	}

	out := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		out = append(out, Entry{
			Name: entry.Name(),
			Path: filepath.Join(dir, entry.Name()),
			Size: info.Size(),
			Dir:  entry.IsDir(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (l *Local) Fetch(ctx context.Context, remotePath, localPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	source, err := os.Open(remotePath)
	if err != nil {
		if os.IsNotExist(err) {
			return services.Wrap(services.ErrNotFound, "storage", "fetch", fmt.Sprintf("file %q does not exist", remotePath), err)
		}
		return fmt.Errorf("open source %q: %w", remotePath, err)
	}
	defer source.Close()
	return writeFile(localPath, source)
}

func (l *Local) Upload(ctx context.Context, localPath, remotePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	source, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open source %q: %w", localPath, err)
	}
	defer source.Close()
	return writeFile(remotePath, source)
}

func (l *Local) Open(ctx context.Context, remotePath string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(remotePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrNotFound, "storage", "open", fmt.Sprintf("file %q does not exist", remotePath), err)
		}
		return nil, fmt.Errorf("open %q: %w", remotePath, err)
	}
	return file, nil
}

func writeFile(path string, source io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create target directory: %w", err)
	}
	dest, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create destination %q: %w", path, err)
	}
	if _, err := io.Copy(dest, source); err != nil {
		dest.Close()
		return fmt.Errorf("copy data: %w", err)
	}
	if err := dest.Close(); err != nil {
		return fmt.Errorf("close destination: %w", err)
	}
	return nil
}
