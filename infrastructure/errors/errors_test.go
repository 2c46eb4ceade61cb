package errors

import (
	"errors"
	"net/http"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "without underlying error",
			err:  New(Unauthorized, "no bearer secret"),
			want: "[UNAUTHORIZED] no bearer secret",
		},
		{
			name: "with underlying error",
			err:  Wrap(Internal, "store failure", errors.New("connection reset")),
			want: "[INTERNAL] store failure: connection reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	underlying := errors.New("boom")
	err := Wrap(Internal, "test", underlying)
	if got := err.Unwrap(); got != underlying {
		t.Errorf("Unwrap() = %v, want %v", got, underlying)
	}
}

func TestError_WithDetails(t *testing.T) {
	err := NewAlreadyActed("player_1")
	if len(err.Details) != 1 || err.Details["role"] != "player_1" {
		t.Errorf("Details = %v, want role=player_1", err.Details)
	}
}

func TestHTTPStatusFor(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{Unauthorized, http.StatusUnauthorized},
		{Forbidden, http.StatusForbidden},
		{NotFound, http.StatusNotFound},
		{InvalidReq, http.StatusBadRequest},
		{InvalidAction, http.StatusBadRequest},
		{AlreadyActed, http.StatusBadRequest},
		{Conflict, http.StatusConflict},
	}

	for _, tt := range tests {
		got := HTTPStatusFor(New(tt.code, "x"))
		if got != tt.want {
			t.Errorf("HTTPStatusFor(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}

	if got := HTTPStatusFor(errors.New("plain")); got != http.StatusInternalServerError {
		t.Errorf("HTTPStatusFor(plain) = %d, want 500", got)
	}
}

func TestIsAndAs(t *testing.T) {
	err := NewConflict("tick mismatch")
	if !Is(err, Conflict) {
		t.Error("Is(err, Conflict) = false, want true")
	}
	if As(err) == nil {
		t.Error("As(err) = nil, want non-nil")
	}
	if As(errors.New("plain")) != nil {
		t.Error("As(plain) = non-nil, want nil")
	}
}
