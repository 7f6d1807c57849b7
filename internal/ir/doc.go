// Package ir defines the shared data model of the view bridge: view
// identifiers, node properties, patches, input events and the error taxonomy.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Patches, node properties and event payloads are closed sum types
//     (sealed interfaces); every consumer switches exhaustively over them
//   - Enum values match the fixed wire layout and must not be renumbered
//     without bumping the wire version
//   - Nodes are returned by value; the registry owns node state
package ir
