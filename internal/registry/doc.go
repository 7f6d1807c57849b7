// Package registry owns the authoritative view state of the bridge.
//
// Tree is the identity and node registry: an arena of nodes keyed by view
// identifier, with parent and child links stored as identifiers rather than
// pointers. Handlers maps (view, category) slots to host receivers.
//
// # Locking
//
// Each registry has its own lock, held for exactly one mutation or lookup.
// The lock order is Tree before Handlers; Handlers never takes the Tree lock.
// A cascading Tree.Remove purges the subtree's handler slots while holding
// the Tree lock, so the router can never observe a removed view with a live
// handler. Receivers are never invoked under either lock.
package registry
