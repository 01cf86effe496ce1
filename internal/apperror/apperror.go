package apperror

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
)

type Code string

const (
	CodeNotFound        Code = "NOT_FOUND"
	CodeOperationFailed Code = "OPERATION_FAILED"
	CodeDatabaseError   Code = "DATABASE_ERROR"
)

// AppError is a business-rule or persistence failure that maps directly to an
// HTTP status. Entity is "user" or "region".
type AppError struct {
	Status  int
	Code    Code
	Entity  string
	Message string
	cause   error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.cause
}

func NotFound(entity, id string) *AppError {
	return &AppError{
		Status:  http.StatusNotFound,
		Code:    CodeNotFound,
		Entity:  entity,
		Message: fmt.Sprintf("%s with id %s not found", entity, id),
	}
}

func OperationFailed(entity, message string) *AppError {
	return &AppError{
		Status:  http.StatusBadRequest,
		Code:    CodeOperationFailed,
		Entity:  entity,
		Message: message,
	}
}

func Database(entity string, err error) *AppError {
	return &AppError{
		Status:  http.StatusInternalServerError,
		Code:    CodeDatabaseError,
		Entity:  entity,
		Message: "Internal server error",
		cause:   err,
	}
}

type response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Write maps err to a transport status and a structured error body. Internal
// detail (the wrapped cause) only goes to the server log, never to the client.
func Write(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = &AppError{
			Status:  http.StatusInternalServerError,
			Code:    CodeDatabaseError,
			Message: "Internal server error",
			cause:   err,
		}
	}

	if appErr.Status >= http.StatusInternalServerError {
		log.Printf("[error] %s %s: %v", r.Method, r.URL.Path, err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Status)
	_ = json.NewEncoder(w).Encode(response{Status: "error", Message: appErr.Message})
}
