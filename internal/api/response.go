package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/erazemk/itemadmin/internal/items"
	"github.com/erazemk/itemadmin/internal/storage"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

// writeServiceError maps item service errors to HTTP responses.
func writeServiceError(w http.ResponseWriter, err error) {
	var missing *items.DoesNotExistError
	switch {
	case errors.As(err, &missing):
		jsonResponse(w, http.StatusUnprocessableEntity, map[string]any{
			"error": missing.Error(),
			"id":    missing.ID,
		})
	case errors.Is(err, items.ErrInvalidArgumentType),
		errors.Is(err, items.ErrUnexpectedValue),
		errors.Is(err, storage.ErrInvalidName):
		jsonError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("item service failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}

// validationErrors renders validator failures per field.
func validationErrors(err error) map[string]string {
	errs := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs["error"] = err.Error()
		return errs
	}
	for _, e := range verrs {
		switch e.Tag() {
		case "required":
			errs[e.Field()] = "is required"
		case "max":
			errs[e.Field()] = "exceeds maximum length"
		case "oneof":
			errs[e.Field()] = "must be one of: " + e.Param()
		case "gte", "lte", "min":
			errs[e.Field()] = "out of allowed range"
		default:
			errs[e.Field()] = "invalid value"
		}
	}
	return errs
}
