// Package model holds the value types shared by the ledger engines:
// participants and the lots they hold, the project cost parameters, the
// scenario adjustments and the per-unit construction constants.
//
// Every type here is a plain value. Slices inside them are treated as
// immutable by the engines; code that needs to change one copies it first
// (see Participant.Clone).
package model
