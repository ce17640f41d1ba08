package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingMetrics struct {
	attempts map[string]int
	retries  int
	results  map[string]int64
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{attempts: map[string]int{}, results: map[string]int64{}}
}

func (m *countingMetrics) ObserveAttempt(o string)         { m.attempts[o]++ }
func (m *countingMetrics) ObserveRetry()                   { m.retries++ }
func (m *countingMetrics) ObserveResult(k string, n int64) { m.results[k] += n }

func pngSpec() UploadSpec {
	return UploadSpec{
		Endpoint: "/image/convert",
		Files: []FilePart{{FieldName: "file", File: PickedFile{
			URI: "file://a.png", Name: "a.png", MimeType: "image/png",
		}}},
		Fields: map[string]string{"output_format": "webp"},
	}
}

func pngTransport() *memTransport {
	return newMemTransport(map[string][]byte{"file://a.png": []byte("\x89PNG....")})
}

func newTestClient(t *testing.T, baseURL string, tr FileTransport, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithRetryPolicy(fastRetry())}, opts...)
	c, err := New(baseURL, staticToken(""), tr, opts...)
	require.NoError(t, err)
	return c
}

func TestProcessMedia_EndToEnd(t *testing.T) {
	var gotAuth, gotFormat, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		gotFormat = r.FormValue("output_format")

		f, fh, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		assert.Equal(t, "a.png", fh.Filename)

		w.Header().Set("Content-Disposition", `attachment; filename="a.webp"`)
		w.Header().Set("Content-Type", "image/webp")
		_, _ = w.Write([]byte("RIFFxxxxWEBP"))
	}))
	defer srv.Close()

	tr := pngTransport()
	m := newCountingMetrics()
	c, err := New(srv.URL, staticToken("tok"), tr, WithMetrics(m))
	require.NoError(t, err)

	res, err := c.ProcessMedia(context.Background(), pngSpec())
	require.NoError(t, err)

	assert.Equal(t, "a.webp", res.Filename)
	assert.NotEmpty(t, res.LocalURI)
	assert.Equal(t, int64(12), res.Size)
	assert.Equal(t, "RIFFxxxxWEBP", string(tr.got))
	assert.Equal(t, "/image/convert", gotPath)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "webp", gotFormat)
	assert.Equal(t, 1, m.attempts[AttemptOK])
	assert.Equal(t, int64(12), m.results["direct"])
}

func TestProcessMedia_RetriesOnceThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	m := newCountingMetrics()
	c := newTestClient(t, srv.URL, pngTransport(), WithMetrics(m))

	res, err := c.ProcessMedia(context.Background(), pngSpec())
	require.NoError(t, err)
	assert.Equal(t, "processed_file", res.Filename)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 1, m.retries)
	assert.Equal(t, 1, m.attempts[AttemptServerError])
	assert.Equal(t, 1, m.attempts[AttemptOK])
}

func TestProcessMedia_NetworkFailureThenSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	var calls int
	doer := doerFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		if calls == 1 {
			if r.Body != nil {
				r.Body.Close()
			}
			return nil, errors.New("connection refused")
		}
		return http.DefaultClient.Do(r)
	})

	c := newTestClient(t, srv.URL, pngTransport(), WithHTTPClient(doer))

	_, err := c.ProcessMedia(context.Background(), pngSpec())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestProcessMedia_RetryExhaustedReturnsSecondError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"detail":"warming up"}`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	tr := pngTransport()
	c := newTestClient(t, srv.URL, tr)

	_, err := c.ProcessMedia(context.Background(), pngSpec())
	require.Error(t, err)
	assert.Equal(t, "Server error: 500", err.Error())
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 0, tr.materialize)
}

func TestProcessMedia_ServerDetailSurfaced(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail": "unsupported format"}`))
	}))
	defer srv.Close()

	t.Run("client errors are final", func(t *testing.T) {
		calls.Store(0)
		c := newTestClient(t, srv.URL, pngTransport())

		_, err := c.ProcessMedia(context.Background(), pngSpec())
		var se *ServerError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, 422, se.Status)
		assert.Equal(t, "unsupported format", err.Error())
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("uniform policy retries them", func(t *testing.T) {
		calls.Store(0)
		p := UniformRetryPolicy()
		p.Backoff = time.Millisecond
		c := newTestClient(t, srv.URL, pngTransport(), WithRetryPolicy(p))

		_, err := c.ProcessMedia(context.Background(), pngSpec())
		require.EqualError(t, err, "unsupported format")
		assert.Equal(t, int32(2), calls.Load())
	})
}

func TestProcessMedia_NoContentIsFinal(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	m := newCountingMetrics()
	c := newTestClient(t, srv.URL, pngTransport(), WithMetrics(m))

	_, err := c.ProcessMedia(context.Background(), pngSpec())
	require.ErrorIs(t, err, ErrNoResult)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, map[string]int{AttemptNoResult: 1}, m.attempts)
}

func TestAttemptOutcome(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"ok", nil, AttemptOK},
		{"timeout", fmt.Errorf("%w after 1s: %w", ErrTimeout, context.DeadlineExceeded), AttemptTimeout},
		{"server", &ServerError{Status: 502, Message: "Server error: 502"}, AttemptServerError},
		{"unresolved", fmt.Errorf("%w: a.png", ErrUnresolvedFile), AttemptUnresolved},
		{"no result", fmt.Errorf("%w: status 204", ErrNoResult), AttemptNoResult},
		{"unreadable body", &ResponseError{Op: "read response", Err: io.ErrUnexpectedEOF}, AttemptBadResponse},
		{"network", errors.New("connection refused"), AttemptNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, attemptOutcome(tt.err))
		})
	}
}

func TestProcessMedia_AnonymousWithoutToken(t *testing.T) {
	var hasAuth atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := r.Header["Authorization"]
		hasAuth.Store(ok)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c, err := New(srv.URL, nil, pngTransport(), WithRetryPolicy(fastRetry()))
	require.NoError(t, err)

	_, err = c.ProcessMedia(context.Background(), pngSpec())
	require.NoError(t, err)
	assert.False(t, hasAuth.Load())
}

func TestProcessMedia_IndirectResult(t *testing.T) {
	var downloadAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("/pdf/merge", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="merged.pdf"`)
		_, _ = w.Write([]byte(`{"download_url": "/files/merged.pdf"}`))
	})
	mux.HandleFunc("/files/merged.pdf", func(w http.ResponseWriter, r *http.Request) {
		downloadAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte("%PDF-1.7"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	tr := newMemTransport(map[string][]byte{"file://a.pdf": []byte("A"), "file://b.pdf": []byte("B")})
	c, err := New(srv.URL, staticToken("tok"), tr, WithRetryPolicy(fastRetry()))
	require.NoError(t, err)

	res, err := c.ProcessMedia(context.Background(), mergeSpec())
	require.NoError(t, err)

	assert.Equal(t, []string{srv.URL + "/files/merged.pdf"}, tr.downloads)
	assert.Equal(t, "%PDF-1.7", string(tr.got))
	assert.Equal(t, "merged.pdf", res.Filename)
	assert.Equal(t, "Bearer tok", downloadAuth)
}

func TestProcessMedia_JSONWithoutDownloadURLIsBinary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pages": 3}`))
	}))
	defer srv.Close()

	tr := pngTransport()
	c := newTestClient(t, srv.URL, tr)

	_, err := c.ProcessMedia(context.Background(), pngSpec())
	require.NoError(t, err)
	assert.Empty(t, tr.downloads)
	assert.Equal(t, `{"pages": 3}`, string(tr.got))
}

func TestProcessMedia_IndirectDownloadFailureIsNotRetried(t *testing.T) {
	var posts atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/image/convert", func(w http.ResponseWriter, r *http.Request) {
		posts.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"download_url": "/gone"}`))
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newTestClient(t, srv.URL, pngTransport())

	_, err := c.ProcessMedia(context.Background(), pngSpec())
	var de *DownloadError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "Download failed: 404", err.Error())
	assert.Equal(t, int32(1), posts.Load())
}

func TestProcessMedia_MaterializeFailureIsFinal(t *testing.T) {
	var posts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts.Add(1)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	tr := pngTransport()
	tr.failWith = errors.New("disk full")
	c := newTestClient(t, srv.URL, tr)

	_, err := c.ProcessMedia(context.Background(), pngSpec())
	require.EqualError(t, err, "disk full")
	assert.Equal(t, int32(1), posts.Load())
	assert.Equal(t, 1, tr.materialize)
}

func TestProcessMedia_Timeout(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, pngTransport(), WithTimeout(50*time.Millisecond))

	_, err := c.ProcessMedia(context.Background(), pngSpec())
	require.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, int32(2), calls.Load())
}

func TestProcessMedia_UnresolvedFile(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, newMemTransport(nil))

	_, err := c.ProcessMedia(context.Background(), pngSpec())
	require.ErrorIs(t, err, ErrUnresolvedFile)
	assert.Equal(t, int32(0), calls.Load())
}

func TestProcessMedia_StreamedBody(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, _, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		b, _ := io.ReadAll(f)
		got = string(b)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	tr := pngTransport()
	tr.stream = true
	c := newTestClient(t, srv.URL, tr)

	_, err := c.ProcessMedia(context.Background(), pngSpec())
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG....", got)
}

func TestNew_Validation(t *testing.T) {
	_, err := New("ftp://host", nil, pngTransport())
	require.Error(t, err)

	_, err = New("http://host", nil, nil)
	require.Error(t, err)

	c, err := New("http://host/api/", nil, pngTransport())
	require.NoError(t, err)

	u, err := c.endpointURL("/image/convert")
	require.NoError(t, err)
	assert.Equal(t, "http://host/api/image/convert", u.String())

	u, err = c.endpointURL("https://other/x")
	require.NoError(t, err)
	assert.Equal(t, "https://other/x", u.String())

	_, err = c.endpointURL("")
	require.Error(t, err)
}

func TestShare_DelegatesToTransport(t *testing.T) {
	c := newTestClient(t, "http://host", pngTransport())

	msg, err := c.Share(context.Background(), ProcessingResult{LocalURI: "x"})
	require.NoError(t, err)
	assert.Equal(t, "shared", msg)
}
