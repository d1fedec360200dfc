// Package domain defines the entity model of the GRISERA experiment and
// signal-recording backend.
//
// Entities are handled as Documents: maps of intrinsic properties, relation id
// fields and, once expanded, nested related entities. The shape of every entity
// type lives in its Schema, looked up by Collection.
//
// # Relations
//
// Each Schema lists the relations it owns (forward relations, stored as id
// fields such as measure_id or observable_information_ids) and the relations
// other types hold towards it (reverse relations, derived at init from the
// forward ones). Both persistence backends walk the same table, so a graph node
// and a stored document expand to the same nested output.
//
// # Expansion
//
// ShouldExpand is the traversal rule shared by the backends: nothing is
// expanded at depth zero, and the relation leading back to the collection the
// traversal came from is skipped. Only the immediate back edge is suppressed;
// longer cycles are bounded by depth alone.
//
// # Results and errors
//
// Reads return a Result, which is either a found Document or a NotFound
// carrying the requested id and a reason. Writes reject bad input with a
// *ValidationError whose payload is rendered under the "errors" key.
package domain
