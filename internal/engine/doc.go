// Package engine connects a view tree to the host's patch and event streams.
//
// ARCHITECTURE:
//
// A Bridge owns one registry.Tree and its registry.Handlers and exposes two
// entry points:
//
//   - Apply: an Applier validates and applies patches in order. A failing
//     patch aborts only itself and is listed in the Report.
//   - Dispatch: a Router checks the event's phase order, looks up the
//     receiver for (view, payload category) and invokes it with no
//     registry lock held.
//
// Hosts that produce patches and events on their own threads use
// SubmitPatches / SubmitEvent and one Run loop, which consumes each stream
// in arrival order on its own goroutine.
//
// Logical Clock:
// Patches, events and id releases are stamped from one Clock. The journal
// (WithJournal) stores them by seq and Replay re-applies them in that order.
//
// Re-entrancy:
// The context given to a receiver is marked. Apply and Dispatch called with
// a marked context queue their work, which runs after the receiver returns.
// A receiver may therefore remove its own view without waiting on itself.
//
// Phase Policy:
// PermissiveForward (default) reports an out-of-order phase and still
// delivers the event. StrictDrop drops it and leaves the device state alone.
package engine
