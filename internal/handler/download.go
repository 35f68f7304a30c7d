package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/Gichie/CloudFileStorage/internal/domain"
	storageSvc "github.com/Gichie/CloudFileStorage/internal/domain/services/storage"
	"github.com/Gichie/CloudFileStorage/internal/httputil"
)

// DownloadHandler streams file and directory-archive downloads
type DownloadHandler struct {
	treeService     storageSvc.TreeService
	downloadService storageSvc.DownloadService
	logger          *slog.Logger
}

// NewDownloadHandler creates a new download handler
func NewDownloadHandler(
	treeService storageSvc.TreeService,
	downloadService storageSvc.DownloadService,
	logger *slog.Logger,
) *DownloadHandler {
	return &DownloadHandler{
		treeService:     treeService,
		downloadService: downloadService,
		logger:          logger,
	}
}

// DownloadFile streams a single file's bytes.
// GET /api/files/{id}/download
func (h *DownloadHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "file ID is required")
		return
	}

	node, body, err := h.downloadService.OpenFile(r.Context(), httputil.GetUserID(r), id)
	if err != nil {
		handleError(w, err)
		return
	}
	defer body.Close()

	contentType := node.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", node.SizeBytes))
	w.Header().Set("Content-Disposition", contentDisposition(node.Name))

	if _, err := io.Copy(w, body); err != nil {
		// Headers are already sent; the client likely disconnected
		h.logger.Debug("file download aborted", "file_id", id, "error", err)
	}
}

// DownloadArchive streams a zip archive of a directory subtree.
// GET /api/folders/{id}/download
func (h *DownloadHandler) DownloadArchive(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "folder ID is required")
		return
	}

	userID := httputil.GetUserID(r)

	// Resolve the directory first so validation errors still get a JSON
	// response; once streaming starts the status is committed.
	dir, err := h.treeService.GetNode(r.Context(), userID, id)
	if err != nil {
		handleError(w, err)
		return
	}
	if !dir.IsDirectory() {
		handleError(w, &domain.ValidationError{
			Message: fmt.Sprintf("%q is not a directory", dir.Name),
			Field:   "id",
		})
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", contentDisposition(dir.Name+".zip"))

	if err := h.downloadService.WriteArchive(r.Context(), w, userID, id); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			h.logger.Debug("archive download aborted", "folder_id", id)
			return
		}
		h.logger.Error("archive download failed mid-stream", "folder_id", id, "error", err)
	}
}

func contentDisposition(filename string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": filename})
}
