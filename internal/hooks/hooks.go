// Package hooks holds the two scheduling helpers the select controller relies
// on: a dependency gate that fires on structural changes and a mounted flag.
package hooks

import (
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var compareOptions = []cmp.Option{
	cmp.Exporter(func(reflect.Type) bool { return true }),
	cmpopts.EquateEmpty(),
}

// DepsEqual reports whether two dependency lists are structurally equal.
// Unexported struct fields take part in the comparison and nil/empty
// collections are treated as equal. Non-nil funcs are never equal, not even
// to themselves.
func DepsEqual(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	return cmp.Equal(a, b, compareOptions...)
}

// DeepCompare gates an effect on a dependency list. The first call always
// reports a change; later calls report a change only when the list differs
// structurally from the one last seen.
type DeepCompare struct {
	mu   sync.Mutex
	seen bool
	last []any
}

// Changed records deps and reports whether the effect should run.
func (d *DeepCompare) Changed(deps []any) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.seen && DepsEqual(d.last, deps) {
		return false
	}
	d.seen = true
	d.last = append([]any(nil), deps...)
	return true
}

// Reset forgets the last dependency list so the next call fires again.
func (d *DeepCompare) Reset() {
	d.mu.Lock()
	d.seen = false
	d.last = nil
	d.mu.Unlock()
}

// MountState tracks whether the owner is currently mounted.
type MountState struct {
	mounted atomic.Bool
}

func (m *MountState) Mount()   { m.mounted.Store(true) }
func (m *MountState) Unmount() { m.mounted.Store(false) }

// IsMounted reports the current mount state.
func (m *MountState) IsMounted() bool {
	return m.mounted.Load()
}
