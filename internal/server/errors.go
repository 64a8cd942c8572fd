package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/oakwood-commons/colkit/pkg/logger"
)

// ErrorResponse is the JSON body of a failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var (
	errUnknownColumn = errors.New("unknown column")
	errPinned        = errors.New("column is pinned")
	errMoveRejected  = errors.New("move not allowed")
	errBadRequest    = errors.New("bad request")
)

func errorCode(err error) (string, int) {
	switch {
	case errors.Is(err, ErrUnknownTable):
		return "unknown_table", http.StatusNotFound
	case errors.Is(err, errUnknownColumn):
		return "unknown_column", http.StatusNotFound
	case errors.Is(err, errPinned):
		return "pinned", http.StatusConflict
	case errors.Is(err, errMoveRejected):
		return "move_rejected", http.StatusConflict
	case errors.Is(err, errBadRequest):
		return "bad_request", http.StatusBadRequest
	}
	return "internal", http.StatusInternalServerError
}

// respondError logs err with the request id and writes it as JSON.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	code, status := errorCode(err)
	lgr := logger.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		lgr.Error(err, "request failed", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()))
	} else {
		lgr.V(1).Info("request rejected", "path", r.URL.Path, "code", code, "error", err.Error())
	}
	respondJSON(w, status, ErrorResponse{Error: err.Error(), Code: code})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
