// Package errors provides structured domain errors with machine-readable codes.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Timeline errors
	CodeTimelineStart      Code = "TIMELINE_MUST_START_WITH_INITIAL_PURCHASE"
	CodeTimelineIDRequired Code = "TIMELINE_ID_REQUIRED"
	CodeEventOutOfOrder    Code = "EVENT_OUT_OF_ORDER"
	CodeInvalidEvent       Code = "EVENT_INVALID"
	CodeUnknownEventKind   Code = "EVENT_UNKNOWN_KIND"

	// Ledger errors
	CodeReferenceNotFound Code = "REFERENCE_NOT_FOUND"
	CodeParticipantExists Code = "PARTICIPANT_ALREADY_EXISTS"

	// Portage errors
	CodeInvalidSurface Code = "PORTAGE_INVALID_SURFACE"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeTimelineStart,
		CodeTimelineIDRequired,
		CodeInvalidEvent,
		CodeUnknownEventKind,
		CodeInvalidSurface:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeEventOutOfOrder,
		CodeReferenceNotFound:
		return codes.FailedPrecondition

	// NotFound - resource doesn't exist
	case CodeNotFound:
		return codes.NotFound

	// AlreadyExists - unique resource constraint
	case CodeParticipantExists:
		return codes.AlreadyExists

	default:
		return codes.Internal
	}
}
