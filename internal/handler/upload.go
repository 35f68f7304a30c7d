package handler

import (
	"fmt"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"

	storageSvc "github.com/Gichie/CloudFileStorage/internal/domain/services/storage"
	"github.com/Gichie/CloudFileStorage/internal/httputil"
)

// UploadHandler handles multipart upload batches
type UploadHandler struct {
	uploadService storageSvc.UploadService
	logger        *slog.Logger
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(uploadService storageSvc.UploadService, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{
		uploadService: uploadService,
		logger:        logger,
	}
}

// UploadResponse is the batch upload response shape
type UploadResponse struct {
	Message string                    `json:"message"`
	Results []storageSvc.UploadResult `json:"results"`
}

// partRelativePath recovers the as-sent filename of a multipart part.
// FileHeader.Filename has already been through filepath.Base, which strips
// the folder segments whole-directory uploads depend on, so the raw
// Content-Disposition header is re-parsed instead.
func partRelativePath(fh *multipart.FileHeader) string {
	if cd := fh.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if name := params["filename"]; name != "" {
				return name
			}
		}
	}
	return fh.Filename
}

// Upload ingests a multipart batch of files.
// POST /api/uploads?parent_id=…
//
// Each part in the "files" field is one file; its filename may carry folder
// segments ("x/y/2.txt") for whole-directory uploads, which are recreated
// under the target parent.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	// 32MB memory threshold; larger parts spill to temp files
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		httputil.RespondError(w, http.StatusBadRequest, "no files provided")
		return
	}

	var parentID *string
	if id := r.URL.Query().Get("parent_id"); id != "" {
		parentID = &id
	}

	items := make([]storageSvc.UploadItem, 0, len(files))
	for _, fh := range files {
		relPath := partRelativePath(fh)

		f, err := fh.Open()
		if err != nil {
			httputil.RespondError(w, http.StatusBadRequest, fmt.Sprintf("failed to open %q", relPath))
			return
		}
		defer f.Close()

		items = append(items, storageSvc.UploadItem{
			RelativePath: relPath,
			Size:         fh.Size,
			ContentType:  fh.Header.Get("Content-Type"),
			Content:      f,
		})
	}

	h.logger.Info("upload batch received",
		"owner_id", userID,
		"file_count", len(items),
		"parent_id", parentID,
	)

	result, err := h.uploadService.Ingest(r.Context(), &storageSvc.UploadBatchRequest{
		OwnerID:  userID,
		ParentID: parentID,
		Items:    items,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	// 200 all ok, 207 partial failure, 400 total failure
	status := http.StatusOK
	message := "upload complete"
	switch {
	case result.AllFailed():
		status = http.StatusBadRequest
		message = "upload failed"
	case result.ErrorCount() > 0:
		status = http.StatusMultiStatus
		message = "upload partially complete"
	}

	httputil.RespondJSON(w, status, UploadResponse{
		Message: message,
		Results: result.Results,
	})
}
