// Package repository defines the entity data access contract for GRISERA.
//
// A Repository persists entities of every collection described by the domain
// schemas and performs the depth-bounded expansion of related entities on
// reads. There are two implementations with the same observable behaviour:
//
//   - graphrepo stores entities as labelled nodes of a property graph;
//     relation id fields become named edges and are rebuilt from the edges of
//     a node on every read.
//   - docrepo stores entities as documents keyed by collection; relation id
//     fields are stored as-is and reverse relations are resolved with filtered
//     queries on the owning collection. Activity executions are embedded in
//     their activity documents.
//
// # Expansion
//
// Get and List take a remaining depth and the collection the traversal came
// from. At depth zero only intrinsic properties and relation id fields are
// returned. Above zero every relation whose target differs from the source is
// populated with depth-1 and the current collection as the new source. A
// to-one relation whose id is unset or fails to resolve is omitted; a to-many
// relation is always a list holding only the entities that resolved.
//
// # Testing
//
// The repotest subpackage holds the behavioural contract both implementations
// are run against.
package repository
