package media

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout is returned when an attempt exceeded the request timeout.
	ErrTimeout = errors.New("request timed out")
	// ErrUnresolvedFile is returned when a picked file cannot be read.
	ErrUnresolvedFile = errors.New("file cannot be resolved")
	// ErrNoResult is returned when the backend answered 2xx without a usable body.
	ErrNoResult = errors.New("empty processing result")
)

// ServerError is a non-2xx answer of the media backend. Error() is the
// message meant for the user: the backend's detail, or a generic one.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return e.Message
}

// DownloadError is a non-2xx answer to the follow-up GET of an indirect result.
type DownloadError struct {
	Status int
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("Download failed: %d", e.Status)
}

// ResponseError is a 2xx answer whose body could not be used: the read
// failed or the download_url did not parse.
type ResponseError struct {
	Op  string
	Err error
}

func (e *ResponseError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *ResponseError) Unwrap() error {
	return e.Err
}
