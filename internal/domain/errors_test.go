package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestDomainError_Message(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains string
	}{
		{
			name:     "no_recipient",
			err:      ErrNoRecipient,
			contains: "no recipient resolvable",
		},
		{
			name:     "state_unavailable",
			err:      ErrStateUnavailable,
			contains: "client state store unavailable",
		},
		{
			name:     "state_key_missing",
			err:      ErrStateKeyMissing,
			contains: "client state key not found",
		},
		{
			name:     "pipeline_panic",
			err:      NewDomainError(ErrorCodePipelinePanicked, "runtime error: index out of range"),
			contains: "index out of range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err == nil {
				t.Fatal("expected error to be defined, got nil")
			}
			if !strings.Contains(strings.ToLower(tt.err.Error()), tt.contains) {
				t.Errorf("error message %q does not contain %q", tt.err.Error(), tt.contains)
			}
		})
	}
}

func TestDomainError_CodeInMessage(t *testing.T) {
	err := NewDomainError(ErrorCodeNotifyDeliveryFailed, "collaborator returned HTTP 502")
	if !strings.Contains(err.Error(), string(ErrorCodeNotifyDeliveryFailed)) {
		t.Errorf("error message %q does not carry its code", err.Error())
	}
}

func TestWrapError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := WrapError(ErrorCodeNotifyDeliveryFailed, "send receipt request", cause)

	if !errors.Is(err, cause) {
		t.Error("expected wrapped error to match its cause via errors.Is")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("error message %q does not include the cause", err.Error())
	}
}

func TestGetErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{
			name: "domain error",
			err:  NewDomainError(ErrorCodeStateUnavailable, "redis down"),
			want: ErrorCodeStateUnavailable,
		},
		{
			name: "wrapped domain error",
			err:  fmt.Errorf("observe: %w", ErrStateKeyMissing),
			want: ErrorCodeStateKeyMissing,
		},
		{
			name: "plain error",
			err:  errors.New("boom"),
			want: "",
		},
		{
			name: "nil",
			err:  nil,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetErrorCode(tt.err); got != tt.want {
				t.Errorf("GetErrorCode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorCategories(t *testing.T) {
	if !IsNotifyError(NewDomainError(ErrorCodeNotifyDeliveryFailed, "x")) {
		t.Error("delivery failure should be a notify error")
	}
	if !IsNotifyError(ErrNoRecipient) {
		t.Error("missing recipient should be a notify error")
	}
	if IsNotifyError(ErrStateUnavailable) {
		t.Error("state errors are not notify errors")
	}

	if !IsStateError(ErrStateKeyMissing) {
		t.Error("missing key should be a state error")
	}
	if !IsStateError(fmt.Errorf("lookup: %w", ErrStateUnavailable)) {
		t.Error("wrapped state errors should still be recognized")
	}
	if IsStateError(ErrNoRecipient) {
		t.Error("notify errors are not state errors")
	}
}

func TestWithDetail(t *testing.T) {
	err := NewDomainError(ErrorCodeNotifyDeliveryFailed, "collaborator returned HTTP 401").
		WithDetail("body", "signature mismatch")

	if err.Details["body"] != "signature mismatch" {
		t.Errorf("detail not recorded: %v", err.Details)
	}
}
