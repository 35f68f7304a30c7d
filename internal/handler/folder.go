package handler

import (
	"log/slog"
	"net/http"

	storageSvc "github.com/Gichie/CloudFileStorage/internal/domain/services/storage"
	"github.com/Gichie/CloudFileStorage/internal/httputil"
)

// FolderHandler handles folder HTTP requests
type FolderHandler struct {
	treeService storageSvc.TreeService
	logger      *slog.Logger
}

// NewFolderHandler creates a new folder handler
func NewFolderHandler(treeService storageSvc.TreeService, logger *slog.Logger) *FolderHandler {
	return &FolderHandler{
		treeService: treeService,
		logger:      logger,
	}
}

// HealthCheck confirms the service is up
// GET /health
func (h *FolderHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CreateFolder creates a new folder
// POST /api/folders
func (h *FolderHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req storageSvc.CreateFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.OwnerID = httputil.GetUserID(r)

	folder, err := h.treeService.CreateFolder(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, folder)
}

// GetFolder retrieves a folder by ID with its computed path
// GET /api/folders/{id}
func (h *FolderHandler) GetFolder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "folder ID is required")
		return
	}

	folder, err := h.treeService.GetNode(r.Context(), httputil.GetUserID(r), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, folder)
}

// ListNodes lists a directory's contents with breadcrumbs.
// GET /api/nodes?path=Docs/reports (empty path = root)
func (h *FolderHandler) ListNodes(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")

	listing, err := h.treeService.ListByPath(r.Context(), httputil.GetUserID(r), path)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, listing)
}

// UpdateNode renames and/or moves a node
// PATCH /api/nodes/{id}
func (h *FolderHandler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "node ID is required")
		return
	}

	var req storageSvc.UpdateNodeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	node, err := h.treeService.UpdateNode(r.Context(), httputil.GetUserID(r), id, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, node)
}

// DeleteNode deletes a node; directories cascade to all descendants
// DELETE /api/nodes/{id}
func (h *FolderHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "node ID is required")
		return
	}

	if err := h.treeService.DeleteNode(r.Context(), httputil.GetUserID(r), id); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
