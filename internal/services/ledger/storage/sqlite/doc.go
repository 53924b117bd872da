// Package sqlite journals timeline events in SQLite.
//
// Each timeline is an append-only sequence. Every row stores the event
// envelope, its content hash and a chain hash linking it to the previous row,
// so a journal can be verified end to end. Appends are rejected when the
// event is dated before the last one on the timeline: replay trusts the
// journal order, so it is checked here.
package sqlite
