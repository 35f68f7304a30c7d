package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	models "github.com/Gichie/CloudFileStorage/internal/domain/models/storage"
	storageSvc "github.com/Gichie/CloudFileStorage/internal/domain/services/storage"
	"github.com/Gichie/CloudFileStorage/internal/httputil"
)

// SearchHandler handles name search requests
type SearchHandler struct {
	searchService storageSvc.SearchService
	logger        *slog.Logger
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(searchService storageSvc.SearchService, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
		logger:        logger,
	}
}

// Search matches node names case-insensitively.
// GET /api/search?q=report&folder_id=…&limit=20&offset=0
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		httputil.RespondError(w, http.StatusBadRequest, "q query parameter is required")
		return
	}

	opts := &models.SearchOptions{
		Query:   query,
		OwnerID: httputil.GetUserID(r),
	}

	if folderID := r.URL.Query().Get("folder_id"); folderID != "" {
		opts.ScopeID = &folderID
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			opts.Limit = n
		}
	}
	if offset := r.URL.Query().Get("offset"); offset != "" {
		if n, err := strconv.Atoi(offset); err == nil {
			opts.Offset = n
		}
	}

	results, err := h.searchService.Search(r.Context(), opts)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, results)
}
