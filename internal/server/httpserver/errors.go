package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/tradexinvest/tradex/internal/common"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type errorKind struct {
	err     error
	kind    string
	status  int
	message string
}

// Order matters: the first match wins.
var errorKinds = []errorKind{
	{common.ErrInvalidCredentials, "invalid_credentials", http.StatusUnauthorized, "invalid credentials"},
	{common.ErrTokenExpired, "forbidden", http.StatusUnauthorized, "token expired"},
	{common.ErrInvalidToken, "forbidden", http.StatusUnauthorized, "invalid token"},
	{common.ErrForbidden, "forbidden", http.StatusForbidden, "forbidden"},
	{common.ErrInvalidCode, "invalid_code", http.StatusUnauthorized, "invalid verification code"},
	{common.ErrorNotFound, "not_found", http.StatusNotFound, "not found"},
	{common.ErrAlreadyProcessed, "already_processed", http.StatusConflict, "already processed"},
	{common.ErrAlreadyExists, "already_exists", http.StatusConflict, "already exists"},
	{common.ErrInsufficientFunds, "insufficient_funds", http.StatusUnprocessableEntity, "insufficient funds"},
	{common.ErrValidation, "validation", http.StatusBadRequest, "invalid request"},
	{common.ErrTooManyRequests, "too_many_requests", http.StatusTooManyRequests, "too many requests, try again later"},
}

func classify(err error) (string, int, string) {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			msg := k.message
			// Validation errors carry a client-facing detail after the sentinel.
			if k.err == common.ErrValidation {
				if _, detail, ok := strings.Cut(err.Error(), common.ErrValidation.Error()+": "); ok {
					msg = detail
				}
			}
			return k.kind, k.status, msg
		}
	}
	return "server_error", http.StatusInternalServerError, "server error"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorKind(w http.ResponseWriter, kind string, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: kind, Message: msg})
}
