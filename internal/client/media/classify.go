package media

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
)

// maxErrorBody caps how much of an error answer is read for its message.
const maxErrorBody = 64 << 10

// Classify turns a processing response into an Outcome, or a *ServerError for
// non-2xx answers. reqURL resolves relative download URLs.
//
// For DirectResult the caller owns Body; in every other case resp.Body has
// been read and closed.
func Classify(resp *http.Response, reqURL *url.URL) (Outcome, error) {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &ServerError{Status: resp.StatusCode, Message: serverMessage(resp.StatusCode, b)}
	}

	if resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusResetContent {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d", ErrNoResult, resp.StatusCode)
	}

	ct := resp.Header.Get("Content-Type")
	if !isJSON(ct) {
		return DirectResult{Body: resp.Body, ContentType: ct, Size: resp.ContentLength}, nil
	}

	b, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, &ResponseError{Op: "read response", Err: err}
	}

	if link, ok := downloadURL(b); ok {
		abs, err := resolveURL(reqURL, link)
		if err != nil {
			return nil, &ResponseError{Op: fmt.Sprintf("bad download_url %q", link), Err: err}
		}
		return IndirectResult{DownloadURL: abs}, nil
	}

	// JSON without a pointer is the processed file itself
	return DirectResult{
		Body:        io.NopCloser(bytes.NewReader(b)),
		ContentType: ct,
		Size:        int64(len(b)),
	}, nil
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(strings.ToLower(contentType), "application/json")
	}
	return mt == "application/json"
}

func downloadURL(body []byte) (string, bool) {
	var v struct {
		DownloadURL *string `json:"download_url"`
	}
	if err := json.Unmarshal(body, &v); err != nil || v.DownloadURL == nil {
		return "", false
	}
	link := strings.TrimSpace(*v.DownloadURL)
	return link, link != ""
}

func resolveURL(base *url.URL, link string) (string, error) {
	ref, err := url.Parse(link)
	if err != nil {
		return "", err
	}
	if base == nil || ref.IsAbs() {
		return ref.String(), nil
	}
	return base.ResolveReference(ref).String(), nil
}

// serverMessage picks the user-facing text of an error answer: the "detail"
// field when it is a string, the joined "msg" entries when it is a list of
// validation errors, else a generic status message.
func serverMessage(status int, body []byte) string {
	var v struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &v); err == nil && len(v.Detail) > 0 {
		var s string
		if err := json.Unmarshal(v.Detail, &s); err == nil && strings.TrimSpace(s) != "" {
			return s
		}

		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(v.Detail, &items); err == nil {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if it.Msg != "" {
					msgs = append(msgs, it.Msg)
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; ")
			}
		}
	}
	return fmt.Sprintf("Server error: %d", status)
}
