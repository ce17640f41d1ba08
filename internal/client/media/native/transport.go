// Package native is the FileTransport for platforms with filesystem access.
// Picked files are attached by reference and read only while the request
// body streams; results are written into a cache directory.
package native

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/mediaxfer/internal/client/media"
	"github.com/dmitrijs2005/mediaxfer/internal/common"
	"github.com/dmitrijs2005/mediaxfer/internal/filex"
	"github.com/dmitrijs2005/mediaxfer/internal/logging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// UnavailableMessage is returned by Share when the device has no share sheet.
const UnavailableMessage = "Sharing is not available on this device"

// ShareSheet is the platform share mechanism.
type ShareSheet interface {
	IsAvailable() bool
	// Share hands the file at path to the user and returns a message for them.
	Share(ctx context.Context, path string) (string, error)
}

// ProgressFunc is called once per cache write with the file name and the
// expected size (-1 when unknown). The returned writer receives every chunk
// written to the cache and is closed when the write ends.
type ProgressFunc func(name string, total int64) io.WriteCloser

type Transport struct {
	fs       afero.Fs
	cacheDir string
	sheet    ShareSheet
	progress ProgressFunc
	log      logging.Logger
	newID    func() string
}

type Option func(*Transport)

// WithFs replaces the OS filesystem, e.g. with afero.NewMemMapFs in tests.
func WithFs(fs afero.Fs) Option {
	return func(t *Transport) { t.fs = fs }
}

func WithShareSheet(s ShareSheet) Option {
	return func(t *Transport) { t.sheet = s }
}

func WithProgress(p ProgressFunc) Option {
	return func(t *Transport) { t.progress = p }
}

func WithLogger(l logging.Logger) Option {
	return func(t *Transport) { t.log = l }
}

func New(cacheDir string, opts ...Option) *Transport {
	t := &Transport{
		fs:       afero.NewOsFs(),
		cacheDir: cacheDir,
		log:      logging.Discard(),
		newID:    uuid.NewString,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

var _ media.FileTransport = (*Transport)(nil)

// Attach checks that the file exists and defers reading it to the request
// body writer. A missing MIME type is sniffed from the file head.
func (t *Transport) Attach(ctx context.Context, f media.PickedFile) (media.Attachment, error) {
	path, err := localPath(f.URI)
	if err != nil {
		return media.Attachment{}, fmt.Errorf("%w: %s: %v", media.ErrUnresolvedFile, f.URI, err)
	}

	fi, err := t.fs.Stat(path)
	if err != nil {
		return media.Attachment{}, fmt.Errorf("%w: %s: %v", media.ErrUnresolvedFile, f.URI, err)
	}
	if fi.IsDir() {
		return media.Attachment{}, fmt.Errorf("%w: %s: is a directory", media.ErrUnresolvedFile, f.URI)
	}

	name := f.Name
	if name == "" {
		name = filepath.Base(path)
	}

	ct := f.MimeType
	if ct == "" {
		ct = t.detect(ctx, path)
	}

	return media.Attachment{
		FileName:    name,
		ContentType: ct,
		Open: func() (io.ReadCloser, error) {
			return t.fs.Open(path)
		},
	}, nil
}

func (t *Transport) detect(ctx context.Context, path string) string {
	fh, err := t.fs.Open(path)
	if err != nil {
		return ""
	}
	defer fh.Close()

	mt, err := mimetype.DetectReader(fh)
	if err != nil {
		t.log.Debug(ctx, "mime detection failed", "path", path, "error", err)
		return ""
	}
	return mt.String()
}

// Materialize streams the result into <cacheDir>/<id>/<filename>. Indirect
// results are fetched through dl first.
func (t *Transport) Materialize(ctx context.Context, out media.Outcome, filename string, dl media.Downloader) (media.ProcessingResult, error) {
	var (
		body io.Reader
		size int64
	)

	switch o := out.(type) {
	case media.DirectResult:
		body, size = o.Body, o.Size
	case media.IndirectResult:
		if dl == nil {
			return media.ProcessingResult{}, errors.New("no downloader for indirect result")
		}
		resp, err := dl.Download(ctx, o.DownloadURL)
		if err != nil {
			return media.ProcessingResult{}, err
		}
		defer resp.Body.Close()

		if filename == common.DefaultFilename {
			filename = media.ExtractFilename(resp.Header.Get("Content-Disposition"))
		}
		body, size = resp.Body, resp.ContentLength
	default:
		return media.ProcessingResult{}, fmt.Errorf("unsupported outcome %T", out)
	}

	path, n, err := t.writeCache(body, filename, size)
	if err != nil {
		return media.ProcessingResult{}, err
	}

	t.log.Debug(ctx, "result cached", "path", path, "bytes", n)

	return media.ProcessingResult{LocalURI: path, Filename: filename, Size: n}, nil
}

func (t *Transport) writeCache(body io.Reader, filename string, size int64) (string, int64, error) {
	dir, err := filex.EnsureDir(t.fs, filepath.Join(t.cacheDir, t.newID()))
	if err != nil {
		return "", 0, fmt.Errorf("cache dir: %w", err)
	}

	name := filex.SafeName(filename, common.DefaultFilename)
	final := filepath.Join(dir, name)

	tmp, err := afero.TempFile(t.fs, dir, "."+name+".*.part")
	if err != nil {
		return "", 0, fmt.Errorf("create cache file: %w", err)
	}

	var w io.Writer = tmp
	if t.progress != nil {
		pw := t.progress(name, size)
		defer pw.Close()
		w = io.MultiWriter(tmp, pw)
	}

	n, err := io.Copy(w, body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = t.fs.Remove(tmp.Name())
		return "", 0, fmt.Errorf("write cache file: %w", err)
	}

	if err := t.fs.Rename(tmp.Name(), final); err != nil {
		_ = t.fs.Remove(tmp.Name())
		return "", 0, fmt.Errorf("rename cache file: %w", err)
	}

	return final, n, nil
}

// Share hands the cached file to the share sheet. A missing share mechanism
// is reported as a message, not an error.
func (t *Transport) Share(ctx context.Context, res media.ProcessingResult) (string, error) {
	if t.sheet == nil || !t.sheet.IsAvailable() {
		return UnavailableMessage, nil
	}

	path, err := localPath(res.LocalURI)
	if err != nil {
		return "", err
	}
	if _, err := t.fs.Stat(path); err != nil {
		return "", fmt.Errorf("shared file: %w", err)
	}

	return t.sheet.Share(ctx, path)
}

// localPath accepts a plain path or a file:// URI.
func localPath(uri string) (string, error) {
	if uri == "" {
		return "", errors.New("empty uri")
	}
	if !strings.Contains(uri, "://") {
		return uri, nil
	}

	u, err := url.Parse(uri)
	if err != nil {
		return "", err
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	p := u.Path
	if u.Host != "" && u.Host != "localhost" {
		// file://a.png is relative
		p = u.Host + u.Path
	}
	if p == "" {
		return "", errors.New("empty path")
	}
	return filepath.FromSlash(p), nil
}
