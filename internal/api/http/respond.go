package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"rentwheels-backend/internal/domain"
	"rentwheels-backend/internal/logger"
	"rentwheels-backend/internal/service"
)

var errMissingToken = errors.New("authorization token is not provided")

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			logger.Error("Failed to encode response", "error", err)
		}
	}
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeError maps service errors onto HTTP status codes. Validation problems
// are the client's fault, conflicts mean the resource state moved, gateway
// failures surface as bad gateway, and anything else is an internal error
// whose details stay in the log.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		writeErrorMessage(w, http.StatusForbidden, "permission denied")
	case domain.IsValidation(err):
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
	case domain.IsConflict(err):
		writeErrorMessage(w, http.StatusConflict, err.Error())
	case domain.IsExternalService(err):
		writeErrorMessage(w, http.StatusBadGateway, err.Error())
	default:
		logger.Error("Internal error", "error", err)
		writeErrorMessage(w, http.StatusInternalServerError, "internal server error")
	}
}
