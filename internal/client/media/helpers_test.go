package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// memTransport serves picked files from memory and keeps materialized bytes.
type memTransport struct {
	files  map[string][]byte
	stream bool

	mu          sync.Mutex
	got         []byte
	downloads   []string
	materialize int
	failWith    error
}

func newMemTransport(files map[string][]byte) *memTransport {
	return &memTransport{files: files}
}

func (m *memTransport) Attach(_ context.Context, f PickedFile) (Attachment, error) {
	b, ok := m.files[f.URI]
	if !ok {
		return Attachment{}, fmt.Errorf("%w: %s", ErrUnresolvedFile, f.URI)
	}
	a := Attachment{FileName: f.Name, ContentType: f.MimeType}
	if m.stream {
		a.Open = func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(b)), nil }
	} else {
		a.Data = b
	}
	return a, nil
}

func (m *memTransport) Materialize(ctx context.Context, out Outcome, filename string, dl Downloader) (ProcessingResult, error) {
	m.mu.Lock()
	m.materialize++
	m.mu.Unlock()

	if m.failWith != nil {
		return ProcessingResult{}, m.failWith
	}

	var body io.Reader
	switch o := out.(type) {
	case DirectResult:
		body = o.Body
	case IndirectResult:
		m.mu.Lock()
		m.downloads = append(m.downloads, o.DownloadURL)
		m.mu.Unlock()
		resp, err := dl.Download(ctx, o.DownloadURL)
		if err != nil {
			return ProcessingResult{}, err
		}
		defer resp.Body.Close()
		body = resp.Body
	}

	b, err := io.ReadAll(body)
	if err != nil {
		return ProcessingResult{}, err
	}

	m.mu.Lock()
	m.got = b
	m.mu.Unlock()

	return ProcessingResult{LocalURI: "mem://" + filename, Filename: filename, Size: int64(len(b))}, nil
}

func (m *memTransport) Share(context.Context, ProcessingResult) (string, error) {
	return "shared", nil
}

type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(r *http.Request) (*http.Response, error) { return f(r) }

func fastRetry() RetryPolicy {
	p := DefaultRetryPolicy()
	p.Backoff = time.Millisecond
	return p
}

func staticToken(tok string) TokenProvider {
	return TokenFunc(func(context.Context) (string, bool) { return tok, tok != "" })
}
