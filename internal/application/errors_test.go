package application

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	t.Parallel()

	var err *ValidationError
	if err.Error() != "" {
		t.Fatalf("expected empty string for nil error, got %q", err.Error())
	}

	empty := &ValidationError{}
	if got := empty.Error(); got != "validation failed" {
		t.Fatalf("expected generic message for empty error, got %q", got)
	}

	withFields := &ValidationError{FieldErrors: map[string]string{"field": "invalid"}}
	if got := withFields.Error(); got != "validation failed" {
		t.Fatalf("expected consistent message for populated error, got %q", got)
	}
}

func TestValidationError_HasErrors(t *testing.T) {
	t.Parallel()

	if err := (&ValidationError{}).HasErrors(); err {
		t.Fatalf("expected HasErrors to report false for empty error")
	}

	if err := (&ValidationError{FieldErrors: map[string]string{"field": "bad"}}).HasErrors(); !err {
		t.Fatalf("expected HasErrors to report true when fields are present")
	}
}

func TestValidationError_UnwrapsToCommandError(t *testing.T) {
	t.Parallel()

	vErr := &ValidationError{Err: ErrInvalidPin}
	vErr.add("PIN", "failed pin")

	if !errors.Is(vErr, ErrInvalidPin) {
		t.Fatalf("expected errors.Is to reach the command error")
	}
	if got := vErr.Error(); got != ErrInvalidPin.Error() {
		t.Fatalf("expected command error message, got %q", got)
	}
	if fields := vErr.Fields(); len(fields) != 1 || fields[0] != "PIN" {
		t.Fatalf("unexpected fields %v", fields)
	}
}

func TestCodeOf(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "command error", err: ErrRoomFull, want: "RoomFull"},
		{name: "wrapped", err: fmt.Errorf("enter: %w", ErrWrongPin), want: "WrongPin"},
		{name: "validation", err: &ValidationError{Err: ErrInvalidWindow}, want: "InvalidWindow"},
		{name: "unknown", err: errors.New("disk on fire"), want: "Internal"},
	}
	for _, tc := range cases {
		if got, _ := CodeOf(tc.err); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}
