package storage

import (
	"context"
	"io"
)

// Entry describes one object in a storage folder listing.
type Entry struct {
	Name string
	Path string
	Size int64
	Dir  bool
}

// Client abstracts a file source or destination. The build executor works
// against this interface so local folders and Nextcloud shares are
// interchangeable.
type Client interface {
	// List enumerates the immediate children of a folder. Subfolders are
	// returned with Dir set; callers decide whether to descend.
	List(ctx context.Context, dir string) ([]Entry, error)
	// Fetch copies a remote object to a local file, creating parent
	// directories as needed.
	Fetch(ctx context.Context, remotePath, localPath string) error
	// Upload copies a local file to the remote path, replacing any
	// existing object.
	Upload(ctx context.Context, localPath, remotePath string) error
	// Open returns a reader for a remote object. The caller closes it.
	Open(ctx context.Context, remotePath string) (io.ReadCloser, error)
}
