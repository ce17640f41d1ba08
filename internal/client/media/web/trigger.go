package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/dmitrijs2005/mediaxfer/internal/common"
	"github.com/dmitrijs2005/mediaxfer/internal/filex"
	"github.com/dmitrijs2005/mediaxfer/internal/netx"
	"github.com/spf13/afero"
)

// DownloadTrigger starts a user-visible download of url saved as filename,
// the way a browser handles a clicked anchor with a download attribute.
type DownloadTrigger interface {
	Trigger(ctx context.Context, url, filename string) (string, error)
}

// DirTrigger saves downloads into a directory, renaming on collision like a
// browser does ("a (1).pdf"). Object URLs are read from the store; http(s)
// URLs are fetched without credentials.
type DirTrigger struct {
	fs     afero.Fs
	dir    string
	store  *ObjectStore
	client netx.Doer
}

// NewDirTrigger saves into dir, or the user's download directory when dir
// is empty.
func NewDirTrigger(fs afero.Fs, dir string, store *ObjectStore, client netx.Doer) *DirTrigger {
	if dir == "" {
		dir = xdg.UserDirs.Download
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &DirTrigger{fs: fs, dir: dir, store: store, client: client}
}

// Trigger saves url and returns the saved path.
func (d *DirTrigger) Trigger(ctx context.Context, url, filename string) (string, error) {
	if _, err := filex.EnsureDir(d.fs, d.dir); err != nil {
		return "", err
	}

	path, err := filex.UniqueName(d.fs, d.dir, filex.SafeName(filename, common.DefaultFilename))
	if err != nil {
		return "", err
	}

	if IsObjectURL(url) {
		b, ok := d.store.Get(url)
		if !ok {
			return "", fmt.Errorf("object url %s was revoked", url)
		}
		if err := afero.WriteFile(d.fs, path, b.Data, 0o644); err != nil {
			return "", fmt.Errorf("save download: %w", err)
		}
		return path, nil
	}

	resp, err := netx.GetWithBearer(ctx, d.client, url, "")
	if err != nil {
		return "", fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("download %s: %s", url, resp.Status)
	}

	f, err := d.fs.Create(path)
	if err != nil {
		return "", fmt.Errorf("save download: %w", err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		_ = d.fs.Remove(path)
		return "", fmt.Errorf("save download: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("save download: %w", err)
	}
	return filepath.Clean(path), nil
}
