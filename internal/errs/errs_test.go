package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestConstructors(t *testing.T) {
	custom := "ACCOUNT_ALREADY_EXISTS"

	tests := []struct {
		name       string
		err        *HTTPError
		wantStatus int
		wantCode   string
	}{
		{"unauthorized", NewUnauthorizedError("x", false), http.StatusUnauthorized, "UNAUTHORIZED"},
		{"forbidden", NewForbiddenError("x", false), http.StatusForbidden, "FORBIDDEN"},
		{"bad request", NewBadRequestError("x", false, nil, nil, nil), http.StatusBadRequest, "BAD_REQUEST"},
		{"bad request custom code", NewBadRequestError("x", true, &custom, nil, nil), http.StatusBadRequest, custom},
		{"not found", NewNotFoundError("x", false, nil), http.StatusNotFound, "NOT_FOUND"},
		{"conflict", NewConflictError("x", false, nil), http.StatusConflict, "CONFLICT"},
		{"too many requests", NewTooManyRequestsError("x"), http.StatusTooManyRequests, "TOO_MANY_REQUESTS"},
		{"internal", NewInternalServerError(), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Status != tt.wantStatus || tt.err.Code != tt.wantCode {
				t.Fatalf("got %d %s, want %d %s", tt.err.Status, tt.err.Code, tt.wantStatus, tt.wantCode)
			}
		})
	}
}

func TestHTTPErrorIs(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewNotFoundError("missing", false, nil))
	if !errors.Is(err, &HTTPError{}) {
		t.Fatal("errors.Is should match any *HTTPError")
	}
	if errors.Is(errors.New("plain"), &HTTPError{}) {
		t.Fatal("plain errors are not HTTP errors")
	}
}

func TestWithMessageCopies(t *testing.T) {
	base := NewNotFoundError("Resource not found", false, nil)
	changed := base.WithMessage("Account not found")

	if base.Message != "Resource not found" {
		t.Fatalf("base mutated: %q", base.Message)
	}
	if changed.Message != "Account not found" || changed.Status != http.StatusNotFound {
		t.Fatalf("unexpected copy: %+v", changed)
	}
}

func TestValidationError(t *testing.T) {
	err := ValidationError(errors.New("number is required"))
	if err.Message != "Validation failed: number is required" || err.Status != http.StatusBadRequest {
		t.Fatalf("unexpected validation error: %+v", err)
	}
}
