// Package event defines the closed set of facts a co-ownership timeline is
// built from.
//
// Events are immutable once produced. The Event interface is sealed: only the
// six kinds declared here satisfy it, so a type switch over them with a
// default error branch is exhaustive. The JSON envelope is the persisted and
// hashed form used by the journal.
package event
