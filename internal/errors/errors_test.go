package errors

import (
	"errors"
	"fmt"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestAppErrorString(t *testing.T) {
	err := Wrap(errors.New("dial refused"), CodeUnavailable, "connect obs").WithMetadata("addr", "localhost:4455")
	want := "[UNAVAILABLE] connect obs map[addr:localhost:4455] caused by: dial refused"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestCodeOfWrapped(t *testing.T) {
	inner := New(CodeCapture, "no display")
	outer := fmt.Errorf("sample: %w", inner)

	if CodeOf(outer) != CodeCapture {
		t.Errorf("CodeOf = %v, want CAPTURE", CodeOf(outer))
	}
	if !IsCode(outer, CodeCapture) {
		t.Error("IsCode should see through fmt wrapping")
	}
	if IsCode(nil, CodeUnknown) {
		t.Error("IsCode(nil) should be false")
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrapf(cause, CodeRemoteTransient, "request %s", "GetVersion")
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find cause")
	}
}

func TestGRPCMapping(t *testing.T) {
	tests := []struct {
		code Code
		want codes.Code
	}{
		{CodeCapture, codes.FailedPrecondition},
		{CodeRemoteExhausted, codes.Unavailable},
		{CodeConfiguration, codes.InvalidArgument},
		{CodeCancelled, codes.Canceled},
		{Code(99), codes.Unknown},
	}
	for _, tt := range tests {
		if got := New(tt.code, "x").GRPCCode(); got != tt.want {
			t.Errorf("GRPCCode(%v) = %v, want %v", tt.code, got, tt.want)
		}
	}

	st, ok := status.FromError(New(CodeConfiguration, "missing scene"))
	if !ok || st.Code() != codes.InvalidArgument {
		t.Errorf("status.FromError = %v, %v", st, ok)
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(New(CodeRemoteTransient, "x")) {
		t.Error("transient should be retryable")
	}
	if !IsRetryable(errors.New("plain")) {
		t.Error("plain errors are treated as retryable")
	}
	if IsRetryable(New(CodeConfiguration, "x")) {
		t.Error("configuration errors are not retryable")
	}
	if IsRetryable(nil) {
		t.Error("nil is not retryable")
	}
}

func TestCodeString(t *testing.T) {
	if CodeRemoteExhausted.String() != "REMOTE_EXHAUSTED" {
		t.Errorf("String() = %q", CodeRemoteExhausted.String())
	}
	if Code(42).String() != "CODE(42)" {
		t.Errorf("String() = %q", Code(42).String())
	}
}
