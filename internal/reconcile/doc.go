// Package reconcile keeps the entity Registry in step with the remote
// server by diffing each fresh snapshot against it.
//
// For one kind, a pass lists the current entities and then:
//
//   - emits Register for every id not yet in the Registry and adds it
//   - emits Update for every id already registered
//   - emits Unregister for every registered id missing from the snapshot
//     and removes it
//
// A failed list aborts the pass for that kind: the Registry is left exactly
// as it was and no events are emitted. A single flaky call can therefore
// never mass-deregister entities.
//
// The Engine is driven by the scheduler loop and is not safe for concurrent
// use.
package reconcile
