package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/superio/interview-server-go/internal/errors"
	"github.com/superio/interview-server-go/internal/httputil"
	"github.com/superio/interview-server-go/internal/middleware"
	"github.com/superio/interview-server-go/internal/model"
	"github.com/superio/interview-server-go/internal/util"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

func writeSuccess(w http.ResponseWriter, status int, fields map[string]any) {
	body := map[string]any{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	writeJSON(w, status, body)
}

// decodeJSON reads a JSON body into dst. An empty body is a validation error.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.ValidationError("Request body is required")
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperrors.ValidationError("Request body too large")
		}
		return apperrors.ValidationError("Invalid JSON body")
	}
	return nil
}

// interviewIDParam returns the {id} path parameter when it is a UUID.
func interviewIDParam(r *http.Request) (string, error) {
	id := chi.URLParam(r, "id")
	if id == "" {
		return "", apperrors.MissingRequired("interview id")
	}
	if !util.IsValidUUID(id) {
		return "", apperrors.InvalidInput("interview id", "must be a UUID")
	}
	return id, nil
}

func identityFrom(r *http.Request) (*model.Identity, error) {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	return identity, nil
}
