package media

import (
	"context"
	"io"
	"net/http"
)

// FileTransport is the platform capability behind the pipeline: how picked
// files become multipart parts, how results become local artifacts and how
// they are shared.
type FileTransport interface {
	// Attach resolves f into a part. Failures must wrap ErrUnresolvedFile.
	Attach(ctx context.Context, f PickedFile) (Attachment, error)

	// Materialize turns a classified outcome into a local result. filename is
	// the name extracted from the processing response.
	Materialize(ctx context.Context, out Outcome, filename string, dl Downloader) (ProcessingResult, error)

	// Share offers a result to the user. The returned string is a message to
	// show; a missing share mechanism is reported there, not as an error.
	Share(ctx context.Context, res ProcessingResult) (string, error)
}

// Attachment is a resolved file part. Exactly one of Data and Open is set:
// Data when the transport already read the bytes, Open when reading is
// deferred until the request body is written.
type Attachment struct {
	FileName    string
	ContentType string
	Data        []byte
	Open        func() (io.ReadCloser, error)
}

// Downloader performs the authenticated GET of an indirect result. Non-2xx
// answers are returned as *DownloadError and the body is already closed.
type Downloader interface {
	Download(ctx context.Context, url string) (*http.Response, error)
}

// Outcome is the classified form of a successful processing response: either
// DirectResult or IndirectResult.
type Outcome interface {
	outcome()
}

// DirectResult carries the processed file bytes in Body. Size is -1 when
// the length is unknown. The pipeline closes Body after materialization.
type DirectResult struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// IndirectResult points at the processed file; DownloadURL is absolute.
type IndirectResult struct {
	DownloadURL string
}

func (DirectResult) outcome()   {}
func (IndirectResult) outcome() {}
