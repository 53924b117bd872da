package errors

import (
	"errors"
	"fmt"
	"testing"

	"google.golang.org/grpc/codes"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := WithMetadata(CodeReferenceNotFound, "participant Alice not found", map[string]string{"participant": "Alice"})
	wrapped := fmt.Errorf("apply event: %w", err)

	if !errors.Is(wrapped, Sentinel(CodeReferenceNotFound)) {
		t.Fatal("expected wrapped error to match reference-not-found sentinel")
	}
	if errors.Is(wrapped, Sentinel(CodeParticipantExists)) {
		t.Fatal("expected wrapped error not to match participant-exists sentinel")
	}
}

func TestErrorUnwrapReturnsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(CodeUnknown, "append event", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to be reachable through Unwrap")
	}
	if err.Error() != "append event" {
		t.Fatalf("message = %q, want %q", err.Error(), "append event")
	}
}

func TestCodeGRPCCode(t *testing.T) {
	tests := []struct {
		code Code
		want codes.Code
	}{
		{CodeTimelineStart, codes.InvalidArgument},
		{CodeInvalidEvent, codes.InvalidArgument},
		{CodeEventOutOfOrder, codes.FailedPrecondition},
		{CodeReferenceNotFound, codes.FailedPrecondition},
		{CodeNotFound, codes.NotFound},
		{CodeParticipantExists, codes.AlreadyExists},
		{CodeUnknown, codes.Internal},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := tt.code.GRPCCode(); got != tt.want {
				t.Fatalf("GRPCCode() = %v, want %v", got, tt.want)
			}
		})
	}
}
