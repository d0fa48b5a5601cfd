package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/nerrad567/keygate/internal/auth"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest        = "bad_request"
	ErrCodeMissingCredential = "missing_credential"
	ErrCodeNotFound          = "not_found"
	ErrCodeUnauthorized      = "unauthorised"
	ErrCodeForbidden         = "forbidden"
	ErrCodeAlreadyIssued     = "already_issued"
	ErrCodeConflict          = "conflict"
	ErrCodeInternal          = "internal_error"
	ErrCodeValidation        = "validation_error"
	ErrCodeMethodNotAllow    = "method_not_allowed"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// errorClasses maps each auth error class to its status and code. Order
// matters only for errors that match more than one class, which none do.
var errorClasses = []struct {
	class  error
	status int
	code   string
}{
	{auth.ErrMissingCredential, http.StatusBadRequest, ErrCodeMissingCredential},
	{auth.ErrBadRequest, http.StatusBadRequest, ErrCodeBadRequest},
	{auth.ErrInvalidName, http.StatusBadRequest, ErrCodeValidation},
	{auth.ErrValidation, http.StatusBadRequest, ErrCodeValidation},
	{auth.ErrUnauthorized, http.StatusUnauthorized, ErrCodeUnauthorized},
	{auth.ErrForbidden, http.StatusForbidden, ErrCodeForbidden},
	{auth.ErrNotFound, http.StatusNotFound, ErrCodeNotFound},
	{auth.ErrAlreadyIssued, http.StatusConflict, ErrCodeAlreadyIssued},
	{auth.ErrConflict, http.StatusConflict, ErrCodeConflict},
}

// writeAuthError maps err to its class and writes the envelope. Internal
// and unclassified errors are logged and answered with a generic message.
func (s *Server) writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	for _, c := range errorClasses {
		if errors.Is(err, c.class) {
			writeError(w, c.status, c.code, err.Error())
			return
		}
	}

	s.logger.Error("request failed",
		"error", err,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", r.Context().Value(ctxKeyRequestID),
	)
	writeInternalError(w, "internal server error")
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
// It writes the 400 response itself and reports whether the caller may go on.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return false
	}

	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, validationMessage(err))
		return false
	}
	return true
}

// validationMessage flattens validator errors into one line.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s: failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

// newValidator returns a validator that reports fields by their JSON name.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
