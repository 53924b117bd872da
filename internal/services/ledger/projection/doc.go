// Package projection replays a timeline into phases.
//
// Phase N is the co-ownership after event N, valued by the cost allocation
// engine and annotated with the money each participant and the copropriété
// moved during the phase. A phase is closed when the next event dates it: its
// recurring monthly costs are then multiplied by its duration and folded into
// the cumulative positions. The last phase stays open.
package projection
