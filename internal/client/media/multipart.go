package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"
	"strings"

	"github.com/dmitrijs2005/mediaxfer/internal/common"
)

const defaultContentType = "application/octet-stream"

// RequestBuilder encodes an UploadSpec into a multipart/form-data POST.
type RequestBuilder struct {
	transport FileTransport
}

func NewRequestBuilder(t FileTransport) *RequestBuilder {
	return &RequestBuilder{transport: t}
}

// Build resolves every file of spec through the transport and returns a POST
// to url. Plain fields come first, ordered by key, followed by the file parts
// in spec order; repeated field names stay separate parts.
//
// The Content-Type header always comes from the multipart writer that chose
// the boundary. Authorization is set only when token is not empty.
func (b *RequestBuilder) Build(ctx context.Context, url string, spec UploadSpec, token string) (*http.Request, error) {
	parts := make([]namedAttachment, 0, len(spec.Files))
	buffered := true

	for _, fp := range spec.Files {
		a, err := b.transport.Attach(ctx, fp.File)
		if err != nil {
			if !errors.Is(err, ErrUnresolvedFile) {
				err = fmt.Errorf("%w: %s: %v", ErrUnresolvedFile, fp.File.URI, err)
			}
			return nil, err
		}
		if a.Data == nil && a.Open == nil {
			return nil, fmt.Errorf("%w: %s: no content", ErrUnresolvedFile, fp.File.URI)
		}
		if a.Data == nil {
			buffered = false
		}
		parts = append(parts, namedAttachment{field: fp.FieldName, Attachment: a})
	}

	var (
		body        io.Reader
		contentType string
	)
	if buffered {
		buf := &bytes.Buffer{}
		mw := multipart.NewWriter(buf)
		if err := writeForm(mw, spec.Fields, parts); err != nil {
			return nil, fmt.Errorf("encode form: %w", err)
		}
		body, contentType = buf, mw.FormDataContentType()
	} else {
		pr, pw := io.Pipe()
		mw := multipart.NewWriter(pw)
		contentType = mw.FormDataContentType()
		go func() {
			pw.CloseWithError(writeForm(mw, spec.Fields, parts))
		}()
		body = pr
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		if c, ok := body.(io.Closer); ok {
			_ = c.Close()
		}
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}
	return req, nil
}

type namedAttachment struct {
	field string
	Attachment
}

func writeForm(mw *multipart.Writer, fields map[string]string, parts []namedAttachment) error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := mw.WriteField(k, fields[k]); err != nil {
			return err
		}
	}

	for _, p := range parts {
		if err := writeFilePart(mw, p); err != nil {
			return err
		}
	}

	return mw.Close()
}

func writeFilePart(mw *multipart.Writer, p namedAttachment) error {
	ct := p.ContentType
	if ct == "" {
		ct = defaultContentType
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(p.field), quoteEscaper.Replace(p.FileName)))
	h.Set("Content-Type", ct)

	w, err := mw.CreatePart(h)
	if err != nil {
		return err
	}

	if p.Data != nil {
		_, err = w.Write(p.Data)
		return err
	}

	rc, err := p.Open()
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnresolvedFile, p.FileName, err)
	}
	defer rc.Close()

	_, err = io.Copy(w, rc)
	return err
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")
