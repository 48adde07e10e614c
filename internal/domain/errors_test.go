package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorIsMatchesCode(t *testing.T) {
	err := fmt.Errorf("query: %w", Forbidden("owner_not_verified", "owner must be verified"))

	if !errors.Is(err, &Error{Code: CodeForbidden}) {
		t.Error("expected match on code")
	}
	if !errors.Is(err, &Error{Code: CodeForbidden, Reason: "owner_not_verified"}) {
		t.Error("expected match on code and reason")
	}
	if errors.Is(err, &Error{Code: CodeForbidden, Reason: "not_an_owner"}) {
		t.Error("unexpected match on different reason")
	}
	if errors.Is(err, &Error{Code: CodeNotFound}) {
		t.Error("unexpected match on different code")
	}
}

func TestErrorIsSentinels(t *testing.T) {
	tests := []struct {
		code     Code
		sentinel error
	}{
		{CodeNotFound, ErrNotFound},
		{CodeValidation, ErrValidation},
		{CodeDuplicateContact, ErrConflict},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if !errors.Is(NewError(tt.code, "x"), tt.sentinel) {
				t.Errorf("%s should match %v", tt.code, tt.sentinel)
			}
		})
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, ""},
		{"typed", NewError(CodeRenterNotVisible, "gone"), CodeRenterNotVisible},
		{"wrapped typed", fmt.Errorf("contact: %w", NewError(CodeInvalidProperty, "p")), CodeInvalidProperty},
		{"bare not found", fmt.Errorf("get renter r1: %w", ErrNotFound), CodeNotFound},
		{"bare conflict", ErrConflict, CodeDuplicateContact},
		{"unclassified", errors.New("boom"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := Upstream("chat thread", cause)
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable")
	}
	if got := err.Error(); got != "chat thread: dial tcp: timeout" {
		t.Errorf("Error() = %q", got)
	}
}

func TestReasonOf(t *testing.T) {
	err := fmt.Errorf("wrap: %w", Forbidden("not_a_renter", "renters only"))
	if got := ReasonOf(err); got != "not_a_renter" {
		t.Errorf("ReasonOf() = %q", got)
	}
	if got := ReasonOf(errors.New("x")); got != "" {
		t.Errorf("ReasonOf() = %q, want empty", got)
	}
}
