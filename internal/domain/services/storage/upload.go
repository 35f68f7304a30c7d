package storage

import (
	"context"
	"io"

	"github.com/Gichie/CloudFileStorage/internal/domain/models/storage"
)

// Upload item statuses reported per file.
const (
	UploadStatusSuccess = "success"
	UploadStatusError   = "error"
)

// UploadItem is one file of an upload batch. RelativePath may carry folder
// segments ("x/y/2.txt") for whole-directory uploads, or just a filename.
type UploadItem struct {
	RelativePath string
	Size         int64
	ContentType  string
	Content      io.Reader
}

// UploadBatchRequest maps a batch of files onto the tree under ParentID
// (nil = root).
type UploadBatchRequest struct {
	OwnerID  string
	ParentID *string
	Items    []UploadItem
}

// UploadResult is the per-file outcome. A failure in one file never aborts
// the rest of the batch.
type UploadResult struct {
	Name         string `json:"name"`
	RelativePath string `json:"relative_path,omitempty"`
	Status       string `json:"status"`
	Error        string `json:"error,omitempty"`
	ID           string `json:"id,omitempty"`
}

// UploadBatchResult collects the per-file outcomes of one batch.
type UploadBatchResult struct {
	Results []UploadResult `json:"results"`
}

// ErrorCount returns how many files failed.
func (r *UploadBatchResult) ErrorCount() int {
	n := 0
	for _, res := range r.Results {
		if res.Status == UploadStatusError {
			n++
		}
	}
	return n
}

// AllFailed reports whether every file in the batch failed.
func (r *UploadBatchResult) AllFailed() bool {
	return len(r.Results) > 0 && r.ErrorCount() == len(r.Results)
}

// UploadService reconciles upload batches onto the tree, creating missing
// intermediate folders idempotently and writing blobs before rows.
type UploadService interface {
	// Ingest processes a batch. Batch limits (file count, total size) are
	// enforced before any storage work; violating either rejects the whole
	// batch with *domain.BatchLimitError. Context cancellation stops
	// processing further files; completed files are kept and reported.
	Ingest(ctx context.Context, req *UploadBatchRequest) (*UploadBatchResult, error)
}

// DownloadService streams file bytes back out of the object store.
type DownloadService interface {
	// OpenFile returns the file node and a reader over its blob.
	// The caller must close the reader.
	OpenFile(ctx context.Context, ownerID, fileID string) (*storage.Node, io.ReadCloser, error)

	// WriteArchive walks the directory subtree depth-first and writes a zip
	// archive of all descendant files to w, fetching one blob at a time.
	// Directories with no files still appear as empty zip entries.
	WriteArchive(ctx context.Context, w io.Writer, ownerID, dirID string) error
}
