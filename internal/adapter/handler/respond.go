package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/lqhuy/marketplace/internal/core/service"
)

// envelope is the uniform response body: {"success": ..., "message": ...,
// "data": ...}.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func respondSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

func respondError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// respondServiceError maps the service error taxonomy onto HTTP statuses.
// Anything unrecognized is a storage fault: logged with context, surfaced
// generically.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		quantityErr   *service.InvalidQuantityError
		stockErr      *service.InsufficientStockError
		validationErr *service.ValidationError
	)

	switch {
	case errors.As(err, &quantityErr),
		errors.As(err, &stockErr),
		errors.As(err, &validationErr),
		errors.Is(err, service.ErrEmptyBasket):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnauthenticated),
		errors.Is(err, service.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrForbidden):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrBasketNotFound),
		errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, service.ErrUserNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
