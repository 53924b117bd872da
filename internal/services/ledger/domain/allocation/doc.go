// Package allocation splits the project's costs across participants.
//
// Calculate is a pure function of the participant list, the project
// parameters, the scenario adjustments and the unit construction constants.
// It prices the purchase per weighted square metre, adds each participant's
// construction and notary fees, spreads shared costs equally per person, and
// derives the loan each participant needs with its annuity payment.
//
// Loans are deliberately not clamped at zero: a participant contributing more
// capital than their cost shows a negative loan so that project totals
// reconcile exactly.
package allocation
