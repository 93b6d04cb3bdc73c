package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/viewtube/backend/internal/auth"
	"github.com/viewtube/backend/internal/graph"
	"github.com/viewtube/backend/internal/logging"
	"github.com/viewtube/backend/internal/repositories"
)

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}

// respondError maps sentinel errors onto the stable error envelope. Unmapped
// errors surface as a generic internal failure so no internals leak.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	status, kind, message := http.StatusInternalServerError, "internal", "internal error"

	switch {
	case errors.Is(err, graph.ErrInvalidArgument):
		status, kind, message = http.StatusBadRequest, "invalid_argument", err.Error()
	case errors.Is(err, auth.ErrTokenReuse):
		status, kind, message = http.StatusUnauthorized, "token_reuse", "refresh token is expired or used"
	case errors.Is(err, auth.ErrInvalidToken):
		status, kind, message = http.StatusUnauthorized, "unauthorized", "invalid token"
	case errors.Is(err, auth.ErrUnauthorized):
		status, kind, message = http.StatusUnauthorized, "unauthorized", "unauthorized request"
	case errors.Is(err, repositories.ErrNotFound):
		status, kind, message = http.StatusNotFound, "not_found", err.Error()
	case errors.Is(err, repositories.ErrConflict):
		status, kind, message = http.StatusConflict, "conflict", err.Error()
	default:
		logging.FromContext(ctx).Error("unhandled error", "error", err)
	}

	respondJSON(ctx, w, status, errorResponse{Error: errorBody{Kind: kind, Message: message}})
}

func respondInvalid(ctx context.Context, w http.ResponseWriter, message string) {
	respondJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: errorBody{Kind: "invalid_argument", Message: message}})
}

func respondUnauthorized(ctx context.Context, w http.ResponseWriter, message string) {
	respondJSON(ctx, w, http.StatusUnauthorized, errorResponse{Error: errorBody{Kind: "unauthorized", Message: message}})
}

func respondConflict(ctx context.Context, w http.ResponseWriter, message string) {
	respondJSON(ctx, w, http.StatusConflict, errorResponse{Error: errorBody{Kind: "conflict", Message: message}})
}

// pathID reads a path parameter and rejects values that are not UUIDs before
// they reach the database, writing the error response itself on failure.
func pathID(ctx context.Context, w http.ResponseWriter, r *http.Request, param, what string) (string, bool) {
	id := r.PathValue(param)
	if _, err := uuid.Parse(id); err != nil {
		respondInvalid(ctx, w, "malformed "+what)
		return "", false
	}
	return id, true
}
