// Package chapters groups ordered-chapter segments into presentations.
//
// Link builds a graph over the whole batch: nodes are input files and edges
// are the next/previous segment UID declarations read from their containers.
// Each weakly connected component must be a simple path. Paths become
// Groups ordered from the member with no predecessor; anything else (a
// cycle, a branch, a UID claimed by two files) becomes a StructuralError
// listing every member, so each input lands in exactly one of the two.
// References to UIDs outside the batch are reported as DanglingReference
// warnings and simply end the chain.
//
// Ordered editions are handled separately: Breakpoints turns an edition's
// chapters into frame ranges, and Index resolves the segments a chapter
// borrows from. Those references never join groups, since many episodes
// may share one opening segment.
package chapters
