package clientcli

import (
	"time"

	"github.com/google/uuid"
)

// UploadOptions configures an upload operation.
type UploadOptions struct {
	LocalPath   string
	Key         string // object key; defaults to the file name
	ContentType string // optional, auto-detect if empty
	Recursive   bool
}

// UploadResult represents the result of uploading a single file.
type UploadResult struct {
	LocalPath   string    `json:"local_path"`
	Key         string    `json:"key"`
	ID          uuid.UUID `json:"id"`
	ContentType string    `json:"content_type"`
	ETag        string    `json:"etag"`
	Size        int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Err         error     `json:"-"` // nil on success
}

// DownloadOptions configures a download operation.
type DownloadOptions struct {
	Key       string
	LocalPath string // empty = derive from key, "-" = stdout
	Video     bool   // fetch through the video route
	Range     string // raw Range header value, e.g. "bytes=0-1023"
}

// DownloadResult represents the result of downloading a file.
type DownloadResult struct {
	Key          string `json:"key"`
	LocalPath    string `json:"local_path"`
	ETag         string `json:"etag"`
	ContentType  string `json:"content_type"`
	ContentRange string `json:"content_range,omitempty"`
	Partial      bool   `json:"partial"`
	Size         int64  `json:"size_bytes"`
}

// serverMetaData mirrors the JSON upload acknowledgement.
type serverMetaData struct {
	ID            uuid.UUID `json:"id"`
	Key           string    `json:"key"`
	ContentType   string    `json:"content_type"`
	ETag          string    `json:"etag"`
	FileSizeBytes int64     `json:"file_size_bytes"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// itemsResponse mirrors the list envelope used by the record routes.
type itemsResponse[T any] struct {
	Items []T `json:"items"`
}
