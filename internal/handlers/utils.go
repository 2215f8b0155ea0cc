package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/akolanti/GoRAG/internal/adapter"
	"github.com/akolanti/GoRAG/internal/domain/ragModel"
	"github.com/akolanti/GoRAG/pkg/logger_i"
)

const maxBodyBytes = 1 << 20

// error codes of the response envelope
const (
	CodeBadRequest       = "bad_request"
	CodeValidation       = "validation_error"
	CodeNotFound         = "not_found"
	CodeUnavailable      = "service_unavailable"
	CodeTimeout          = "timeout"
	CodeInternal         = "internal_error"
	CodeUnauthorized     = "unauthorized"
	CodeTooManyRequests  = "rate_limited"
	CodeShuttingDown     = "shutting_down"
	CodeMethodNotAllowed = "method_not_allowed"
)

var logRH = logger_i.NewLogger("RequestHandler")

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// the status line is already out, only logging is left
		logRH.Error("Error encoding response", "err", err)
	}
}

func WriteErrorResponse(w http.ResponseWriter, ctx context.Context, httpCode int, code string, message string) {
	writeJsonResponse(w, httpCode, adapter.ToErrorResponse(code, message, logger_i.TraceId(ctx)))
}

// writeServiceError is the one place service errors become HTTP codes.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	switch {
	case errors.Is(err, ragModel.ErrValidation):
		WriteErrorResponse(w, ctx, http.StatusBadRequest, CodeValidation, err.Error())
	case errors.Is(err, ragModel.ErrNotFound):
		WriteErrorResponse(w, ctx, http.StatusNotFound, CodeNotFound, err.Error())
	case errors.Is(err, ragModel.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		WriteErrorResponse(w, ctx, http.StatusGatewayTimeout, CodeTimeout, "request timed out")
	case errors.Is(err, ragModel.ErrStoreUnavailable), errors.Is(err, ragModel.ErrUnavailable):
		logRH.WithContext(ctx).Error("Dependency unavailable", "path", r.URL.Path, "err", err)
		WriteErrorResponse(w, ctx, http.StatusServiceUnavailable, CodeUnavailable, "a backing service is unavailable")
	default:
		logRH.WithContext(ctx).Error("Unhandled error", "path", r.URL.Path, "err", err)
		WriteErrorResponse(w, ctx, http.StatusInternalServerError, CodeInternal, "internal error")
	}
}

// decodeBody reads a JSON body of bounded size. Unknown fields are rejected.
func decodeBody(w http.ResponseWriter, r *http.Request, target interface{}) bool {
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			logRH.Error("Couldn't close the request body", "err", err)
		}
	}(r.Body)

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		logRH.WithContext(r.Context()).Warn("Bad request body", "path", r.URL.Path, "err", err)
		WriteErrorResponse(w, r.Context(), http.StatusBadRequest, CodeBadRequest, "request body is not valid JSON for this endpoint")
		return false
	}
	return true
}

func parseDocumentId(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	return id, err == nil && id > 0
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteErrorResponse(w, r.Context(), http.StatusMethodNotAllowed, CodeMethodNotAllowed, r.Method+" is not allowed on "+r.URL.Path)
}

func RouteNotFound(w http.ResponseWriter, r *http.Request) {
	WriteErrorResponse(w, r.Context(), http.StatusNotFound, CodeNotFound, "no route for "+r.URL.Path)
}
