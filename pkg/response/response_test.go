package response

import (
	"errors"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	err := NewBadRequest("invalid input")
	if err.Error() != "invalid input" {
		t.Errorf("Error() = %q, expected %q", err.Error(), "invalid input")
	}
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		httpStatus int
		code       int
	}{
		{"bad request", NewBadRequest("x"), http.StatusBadRequest, 400},
		{"unauthorized", NewUnauthorized("x"), http.StatusUnauthorized, 401},
		{"forbidden", NewForbidden("x"), http.StatusForbidden, 403},
		{"not found", NewNotFound("x"), http.StatusNotFound, 404},
		{"conflict", NewConflict("x"), http.StatusConflict, 409},
		{"too many requests", NewTooManyRequests("x"), http.StatusTooManyRequests, 429},
		{"server error", NewServerError("x"), http.StatusInternalServerError, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.HTTPStatus != tt.httpStatus {
				t.Errorf("HTTPStatus = %d, expected %d", tt.err.HTTPStatus, tt.httpStatus)
			}
			if tt.err.Code != tt.code {
				t.Errorf("Code = %d, expected %d", tt.err.Code, tt.code)
			}
		})
	}
}

func TestIsAppError(t *testing.T) {
	err := NewConflict("duplicate key")
	if !IsAppError(err, 409) {
		t.Error("IsAppError should match code 409")
	}
	if IsAppError(err, 400) {
		t.Error("IsAppError should not match code 400")
	}
	if IsAppError(errors.New("plain"), 500) {
		t.Error("plain errors are not AppErrors")
	}
}

func TestIsAppError_Wrapped(t *testing.T) {
	inner := NewNotFound("team not found")
	wrapped := errorsJoin("context", inner)
	if !IsAppError(wrapped, 404) {
		t.Error("IsAppError should unwrap joined errors")
	}
}

func errorsJoin(msg string, err error) error {
	return errors.Join(errors.New(msg), err)
}
