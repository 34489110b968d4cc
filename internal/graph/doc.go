// Package graph holds the dependency topology of a single plan.
//
// Nodes are task ids. An edge from A to B records that B references A, so A
// must reach a terminal outcome before B can be considered. The graph is
// built once by the resolver and is read-only afterwards; the lock only
// guards construction.
package graph
