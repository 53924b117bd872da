// Package app is the ledger application service: it records events on
// journaled timelines and answers projection queries by full replay.
package app
