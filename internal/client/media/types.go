package media

// PickedFile references a file selected by the user. It is read-only for the
// pipeline.
type PickedFile struct {
	URI      string
	Name     string
	MimeType string
	Size     int64
}

// FilePart binds a file to a multipart field name. Field names may repeat.
type FilePart struct {
	FieldName string
	File      PickedFile
}

// UploadSpec is the input of a transfer.
type UploadSpec struct {
	Endpoint string
	Files    []FilePart
	Fields   map[string]string
}

// ProcessingResult is what a successful transfer hands back to the caller.
//
// LocalURI is an object URL, a remote download URL or a cache-file path
// depending on the transport and response shape. Size is the number of bytes
// materialized locally, -1 when the bytes never passed through this process.
type ProcessingResult struct {
	LocalURI string
	Filename string
	Size     int64
}
