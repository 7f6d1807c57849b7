// Package testutil holds fixtures shared by the bridge's package tests:
// event and patch builders, a recording receiver and an in-memory journal.
package testutil
