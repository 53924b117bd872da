// Package ledger folds timeline events into the co-ownership state.
//
// Apply is a pure transition: it copies the state it is given, applies one
// event and returns the copy. Callers may keep every intermediate state; none
// of them share mutable memory with another.
//
// Missing references (a seller, an exiting participant, a copropriété lot, a
// redistribution recipient) fail with a ReferenceNotFound domain error. Lots
// on participants are resolved only when the participant declares them, since
// an initial purchase may list founders without their lots.
package ledger
