package handler

import (
	"errors"
	"net/http"

	"github.com/Gichie/CloudFileStorage/internal/domain"
	"github.com/Gichie/CloudFileStorage/internal/httputil"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	var conflictErr *domain.ConflictError
	var partialErr *domain.PartialDeleteError
	var batchErr *domain.BatchLimitError

	switch {
	case errors.As(err, &validationErr):
		extras := map[string]interface{}{}
		if validationErr.Field != "" {
			extras["field"] = validationErr.Field
		}
		httputil.RespondErrorWithExtras(w, http.StatusBadRequest, validationErr.Message, extras)
	case errors.As(err, &conflictErr):
		httputil.RespondErrorWithExtras(w, http.StatusConflict, conflictErr.Message, map[string]interface{}{
			"field":       "name",
			"resource_id": conflictErr.ResourceID,
		})
	case errors.As(err, &partialErr):
		httputil.RespondErrorWithExtras(w, http.StatusInternalServerError, partialErr.Error(), map[string]interface{}{
			"remaining": partialErr.Remaining,
		})
	case errors.As(err, &batchErr):
		httputil.RespondError(w, http.StatusRequestEntityTooLarge, batchErr.Message)
	case errors.Is(err, domain.ErrCycle):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrCrossOwner):
		httputil.RespondError(w, http.StatusForbidden, "destination belongs to a different owner")
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		httputil.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrStore):
		httputil.RespondError(w, http.StatusBadGateway, "object store unavailable")
	default:
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}
