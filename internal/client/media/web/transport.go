// Package web is the FileTransport for browser-like platforms. Picked files
// are fetched into memory before the request is built, and results are handed
// to a download trigger instead of being written to a cache.
package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/dmitrijs2005/mediaxfer/internal/client/media"
	"github.com/dmitrijs2005/mediaxfer/internal/logging"
	"github.com/dmitrijs2005/mediaxfer/internal/netx"
	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
)

// ShareMessage is what Share reports: the browser already saved the file.
const ShareMessage = "The file was downloaded by the browser"

type Transport struct {
	fs      afero.Fs
	store   *ObjectStore
	trigger DownloadTrigger
	client  netx.Doer
	log     logging.Logger
}

type Option func(*Transport)

func WithFs(fs afero.Fs) Option {
	return func(t *Transport) { t.fs = fs }
}

func WithHTTPClient(d netx.Doer) Option {
	return func(t *Transport) { t.client = d }
}

func WithLogger(l logging.Logger) Option {
	return func(t *Transport) { t.log = l }
}

func New(store *ObjectStore, trigger DownloadTrigger, opts ...Option) *Transport {
	t := &Transport{
		fs:      afero.NewOsFs(),
		store:   store,
		trigger: trigger,
		client:  http.DefaultClient,
		log:     logging.Discard(),
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

var _ media.FileTransport = (*Transport)(nil)

// Attach reads the whole file. Object URLs come from the store, http(s)
// URLs are fetched, anything else is read from the filesystem.
func (t *Transport) Attach(ctx context.Context, f media.PickedFile) (media.Attachment, error) {
	data, ct, name, err := t.fetch(ctx, f.URI)
	if err != nil {
		return media.Attachment{}, fmt.Errorf("%w: %s: %v", media.ErrUnresolvedFile, f.URI, err)
	}

	if f.Name != "" {
		name = f.Name
	}
	if f.MimeType != "" {
		ct = f.MimeType
	}
	if ct == "" {
		ct = mimetype.Detect(data).String()
	}

	return media.Attachment{FileName: name, ContentType: ct, Data: data}, nil
}

func (t *Transport) fetch(ctx context.Context, uri string) ([]byte, string, string, error) {
	switch {
	case IsObjectURL(uri):
		b, ok := t.store.Get(uri)
		if !ok {
			return nil, "", "", errors.New("object url revoked")
		}
		return b.Data, b.ContentType, b.Name, nil

	case strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://"):
		resp, err := netx.GetWithBearer(ctx, t.client, uri, "")
		if err != nil {
			return nil, "", "", err
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, "", "", fmt.Errorf("fetch: %s", resp.Status)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, "", "", err
		}
		return data, resp.Header.Get("Content-Type"), urlBase(uri), nil

	default:
		p := uri
		if strings.HasPrefix(uri, "file://") {
			u, err := url.Parse(uri)
			if err != nil {
				return nil, "", "", err
			}
			p = u.Host + u.Path
			if u.Host == "localhost" {
				p = u.Path
			}
		}
		data, err := afero.ReadFile(t.fs, p)
		if err != nil {
			return nil, "", "", err
		}
		return data, "", path.Base(p), nil
	}
}

// Materialize hands the result to the download trigger. Direct bodies become
// an object URL first; indirect results are triggered on their URL as is.
func (t *Transport) Materialize(ctx context.Context, out media.Outcome, filename string, _ media.Downloader) (media.ProcessingResult, error) {
	switch o := out.(type) {
	case media.DirectResult:
		data, err := io.ReadAll(o.Body)
		if err != nil {
			return media.ProcessingResult{}, fmt.Errorf("read result: %w", err)
		}

		objURL := t.store.CreateObjectURL(Blob{Data: data, ContentType: o.ContentType, Name: filename})
		saved, err := t.trigger.Trigger(ctx, objURL, filename)
		if err != nil {
			return media.ProcessingResult{}, err
		}
		t.log.Debug(ctx, "download triggered", "url", objURL, "saved", saved)

		return media.ProcessingResult{LocalURI: objURL, Filename: filename, Size: int64(len(data))}, nil

	case media.IndirectResult:
		saved, err := t.trigger.Trigger(ctx, o.DownloadURL, filename)
		if err != nil {
			return media.ProcessingResult{}, err
		}
		t.log.Debug(ctx, "download triggered", "url", o.DownloadURL, "saved", saved)

		return media.ProcessingResult{LocalURI: o.DownloadURL, Filename: filename, Size: -1}, nil
	}

	return media.ProcessingResult{}, fmt.Errorf("unsupported outcome %T", out)
}

// Share does nothing; the file is already in the user's downloads.
func (t *Transport) Share(context.Context, media.ProcessingResult) (string, error) {
	return ShareMessage, nil
}

func urlBase(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" || u.Path == "/" {
		return ""
	}
	return path.Base(u.Path)
}
