package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/nkiryanov/elbishomes/internal/apperrors"
	"github.com/nkiryanov/elbishomes/internal/service/validate"
)

// Max accepted request body
const maxBodyBytes = 1 << 20

type Struct any

// Every JSON response is wrapped into the envelope
type Envelope struct {
	Success bool              `json:"success"`
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Data    any               `json:"data,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type logger interface {
	Error(msg string, args ...any)
}

// Render successful response
func JSON(w http.ResponseWriter, code int, message string, data any) {
	jsonWithStatus(w, Envelope{
		Success: true,
		Status:  code,
		Message: message,
		Data:    data,
	}, code)
}

// Render failed response with message as is
func Fail(w http.ResponseWriter, code int, message string) {
	jsonWithStatus(w, Envelope{
		Status:  code,
		Message: message,
	}, code)
}

// Render json DecodeError
func DecodeError(w http.ResponseWriter, err error) {
	var message string

	// Try to provide more specific error message based on error type
	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &typeErr):
		message = fmt.Sprintf("Invalid data type for field '%s'", typeErr.Field)
	case errors.As(err, &maxErr):
		message = "Request body is too large"
	default:
		message = fmt.Sprintf("Failed to parse JSON: %s", err.Error())
	}

	Fail(w, http.StatusBadRequest, message)
}

// Render ValidationError with its fields
func ValidationError(w http.ResponseWriter, vErr *apperrors.ValidationError) {
	jsonWithStatus(w, Envelope{
		Status:  http.StatusBadRequest,
		Message: "Validation error: invalid or empty fields",
		Fields:  vErr.Fields,
	}, http.StatusBadRequest)
}

// Render service error
// Known error kinds get their status, anything else is logged and rendered as 500
func Error(w http.ResponseWriter, err error, l logger) {
	var vErr *apperrors.ValidationError
	if errors.As(err, &vErr) {
		ValidationError(w, vErr)
		return
	}

	code, message := statusOf(err)
	if code == http.StatusInternalServerError {
		l.Error("request failed", "error", err)
	}

	Fail(w, code, message)
}

func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest, "Validation error: invalid or empty fields"
	case errors.Is(err, apperrors.ErrDuplicateEmail):
		return http.StatusConflict, "User with this email already exists"
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, apperrors.ErrUnauthenticated):
		return http.StatusUnauthorized, "Authentication credentials were not provided or are invalid"
	case errors.Is(err, apperrors.ErrUserNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, apperrors.ErrInvalidToken):
		return http.StatusBadRequest, "Invalid token"
	case errors.Is(err, apperrors.ErrExpired):
		return http.StatusBadRequest, "Token has expired"
	case errors.Is(err, apperrors.ErrPropertyNotFound):
		return http.StatusNotFound, "Property does not exist"
	case errors.Is(err, apperrors.ErrFavoriteNotFound):
		return http.StatusNotFound, "Property is not in favorites"
	case errors.Is(err, apperrors.ErrFavoriteExists):
		return http.StatusConflict, "Property already in favorites"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// BindAndValidate decodes JSON request body into type T and validates it using struct tags.
// Writes appropriate error response for decoding or validation failures.
func BindAndValidate[T Struct](w http.ResponseWriter, r *http.Request) (T, error) {
	var value T

	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(body).Decode(&value)
	if err != nil {
		DecodeError(w, err)
		return value, err
	}

	err = validate.Struct(value)
	if err != nil {
		var vErr *apperrors.ValidationError
		if errors.As(err, &vErr) {
			ValidationError(w, vErr)
		} else {
			Fail(w, http.StatusBadRequest, err.Error())
		}
		return value, err
	}

	return value, nil
}

// jsonWithStatus sends data as json and enforces status code
func jsonWithStatus(w http.ResponseWriter, data any, code int) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)

	if err := enc.Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}
