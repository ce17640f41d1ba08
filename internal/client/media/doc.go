// Package media implements the authenticated media transfer pipeline.
//
// # Overview
//
// A call to (*Client).ProcessMedia runs the following steps:
//
//  1. Token: TokenProvider returns the current bearer credential, or nothing.
//  2. Build: RequestBuilder encodes plain fields and file parts into one
//     multipart/form-data request. Files are resolved by the FileTransport.
//  3. Send: the request is POSTed with a per-attempt timeout and the response
//     is classified into an Outcome (DirectResult or IndirectResult).
//  4. Materialize: the FileTransport turns the Outcome into a ProcessingResult.
//
// Steps 1–3 are one attempt; RetryPolicy repeats a failed attempt once after a
// short pause. Materialization happens after a successful attempt and is never
// retried.
//
// # Platforms
//
// FileTransport has two implementations selected once at startup: the native
// variant (internal/client/media/native) attaches files by reference and
// writes results to a cache directory; the web variant
// (internal/client/media/web) pre-reads files into blobs and hands results to
// a download trigger.
//
// # Errors
//
// Server-reported failures are *ServerError, failed indirect downloads are
// *DownloadError; both render the user-facing message as Error(). Timeouts
// match ErrTimeout, unresolvable files match ErrUnresolvedFile.
package media
