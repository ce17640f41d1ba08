// Package netx holds the plain HTTP helpers used outside the multipart
// pipeline: the authenticated GET behind indirect downloads and the PUT to a
// presigned object-storage URL used when sharing.
package netx

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/mediaxfer/internal/common"
)

// Doer is the part of *http.Client the helpers need.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// GetWithBearer issues a GET to url and attaches "Authorization: Bearer token"
// when token is not empty. The response is returned as-is, whatever its status;
// the caller owns resp.Body.
func GetWithBearer(ctx context.Context, client Doer, url, token string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	return client.Do(req)
}

// UploadToPresignedURL streams body to a presigned PUT URL. size may be -1
// when unknown.
func UploadToPresignedURL(ctx context.Context, client Doer, url string, body io.Reader, size int64, contentType string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, body)
	if err != nil {
		return err
	}
	if size >= 0 {
		req.ContentLength = size
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("upload failed: %s; body: %s", resp.Status, string(b))
	}
	return nil
}
