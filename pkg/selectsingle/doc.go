// Package selectsingle implements a headless, decoupled single-select
// controller.
//
// A Controller fetches models from a Service, turns them into options with a
// caller-supplied transform and reconciles an externally controlled value
// against the fetched set. Values that are not present in the fetched options
// put the controller into a warning state, which renderers can surface through
// the Display carried on every View.
//
// Two independent triggers drive the controller:
//
//   - SetFetchDeps re-runs the service whenever the dependency list changes
//     structurally (deep equality, not identity). Mount runs the first fetch.
//   - SetValue and SetTransformDeps re-run the reconciliation pass against the
//     stored models, unless a fetch is in flight.
//
// All state transitions go through a single reducer guarded by the controller
// lock. Callbacks (OnChange, OnPrepareDone) and subscribers run after the lock
// is released, so they may call back into the controller. Transform and text
// functions run under the lock and must not.
//
// Rendering is left to select primitives that consume View snapshots, see the
// tui, vanilla and optionsapi packages.
package selectsingle
