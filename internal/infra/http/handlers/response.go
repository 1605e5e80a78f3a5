package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/xavierca1/beauty-leads/internal/apperror"
	"github.com/xavierca1/beauty-leads/internal/entity"
	"github.com/xavierca1/beauty-leads/internal/usecase"
)

type ErrorResponse struct {
	Error   string              `json:"error"`
	Message string              `json:"message,omitempty"`
	Fields  []map[string]string `json:"fields,omitempty"`
	Toasts  []Toast             `json:"toasts,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeValidationError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:  "VALIDATION_ERROR",
		Fields: apperror.CustomValidationError(err),
	})
}

// writeUsecaseError maps editor and store errors to a status code. The
// toasts the editor raised travel with the body.
func writeUsecaseError(w http.ResponseWriter, log *zap.Logger, err error, toasts []Toast) {
	var (
		domainErr *usecase.DomainError
		techErr   *usecase.TechnicalError
	)
	switch {
	case errors.Is(err, entity.ErrLeadNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "LEAD_NOT_FOUND", Message: "lead not found", Toasts: toasts})
	case errors.Is(err, usecase.ErrDeleteNotConfirmed):
		writeJSON(w, http.StatusPreconditionRequired, ErrorResponse{
			Error:   "CONFIRMATION_REQUIRED",
			Message: usecase.MsgConfirmDelete,
			Toasts:  toasts,
		})
	case errors.Is(err, usecase.ErrEmptyDescription):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "EMPTY_DESCRIPTION", Message: err.Error(), Toasts: toasts})
	case errors.As(err, &domainErr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: domainErr.Code, Message: domainErr.Message, Toasts: toasts})
	case errors.As(err, &techErr):
		log.Error("lead operation failed", zap.String("code", techErr.Code), zap.Error(techErr.Err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: techErr.Code, Message: techErr.Message, Toasts: toasts})
	default:
		log.Error("unexpected error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "INTERNAL_ERROR", Message: "internal error", Toasts: toasts})
	}
}
