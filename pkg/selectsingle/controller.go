package selectsingle

import (
	"context"
	"sync"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"

	"github.com/goliatone/go-selectkit/internal/hooks"
)

// Controller is a decoupled single-select. The zero value is not usable; call
// New.
type Controller[M any, ID comparable] struct {
	service   Service[M]
	transform TransformFunc[M, ID]
	opts      Options[M, ID]
	reducer   reducer[M, ID]
	logger    *zap.Logger

	mu            sync.Mutex
	st            state[M, ID]
	version       uint64
	fetchDeps     []any
	transformDeps []any

	fetchGate     hooks.DeepCompare
	transformGate hooks.DeepCompare
	mount         hooks.MountState

	ctx       context.Context
	cancel    context.CancelFunc
	stopAfter func() bool
	tasks     conc.WaitGroup

	subMu          sync.Mutex
	subs           map[int]func(View[M, ID])
	nextSub        int
	pending        View[M, ID]
	pendingVersion uint64
	delivered      uint64
	delivering     bool
}

var _ Selector[any, string] = (*Controller[any, string])(nil)

// New builds a controller. Nothing is fetched until Mount.
func New[M any, ID comparable](service Service[M], transform TransformFunc[M, ID], fns ...OptionFn[M, ID]) *Controller[M, ID] {
	opts := NewOptions(fns...)
	c := &Controller[M, ID]{
		service:   service,
		transform: transform,
		opts:      opts,
		logger:    opts.Logger,
		reducer: reducer[M, ID]{
			transform:   transform,
			warningText: opts.WarningText,
			additional:  opts.AdditionalModels,
			policy:      opts.FetchPolicy,
		},
		fetchDeps:     opts.FetchDeps,
		transformDeps: opts.TransformDeps,
		subs:          make(map[int]func(View[M, ID])),
	}
	c.st = initialState(opts, transform)
	return c
}

// Mount ties the controller to ctx and runs the initial fetch. Cancelling ctx
// unmounts the controller.
func (c *Controller[M, ID]) Mount(ctx context.Context) error {
	if c.service == nil {
		return ErrMissingService
	}
	if c.transform == nil {
		return ErrMissingTransform
	}
	if ctx == nil {
		ctx = context.Background()
	}

	c.mu.Lock()
	switch {
	case c.st.closed:
		c.mu.Unlock()
		return ErrUnmounted
	case c.st.mounted:
		c.mu.Unlock()
		return ErrAlreadyMounted
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.mount.Mount()
	c.stopAfter = context.AfterFunc(c.ctx, c.Unmount)
	c.mu.Unlock()

	c.dispatch(event[M, ID]{kind: eventMount})

	// The reconciliation trigger only watches for changes after mount; the
	// first pass is run by the initial fetch.
	c.mu.Lock()
	c.transformGate.Changed(c.transformKeyLocked())
	fetch := c.fetchGate.Changed(c.fetchDeps)
	c.mu.Unlock()
	if fetch {
		c.startFetch()
	}
	return nil
}

// Unmount cancels in-flight fetches and discards any result that still
// arrives. The controller cannot be mounted again.
func (c *Controller[M, ID]) Unmount() {
	c.mount.Unmount()
	c.mu.Lock()
	cancel, stop := c.cancel, c.stopAfter
	c.mu.Unlock()
	if stop != nil {
		stop()
	}
	if cancel != nil {
		cancel()
	}
	c.dispatch(event[M, ID]{kind: eventUnmount})
}

// Wait blocks until every dispatched fetch has completed and its result has
// been applied or discarded.
func (c *Controller[M, ID]) Wait() {
	c.tasks.Wait()
}

// SetValue updates the controlled value.
func (c *Controller[M, ID]) SetValue(value ID) {
	c.setValue(value, true)
}

// ClearValue removes the controlled value.
func (c *Controller[M, ID]) ClearValue() {
	var zero ID
	c.setValue(zero, false)
}

func (c *Controller[M, ID]) setValue(value ID, hasValue bool) {
	c.dispatch(event[M, ID]{kind: eventSetValue, value: value, hasValue: hasValue})
	c.triggerReconcile()
}

// SetTransformDeps replaces the dependency list gating reconciliation passes.
// Deps compare structurally; see SetFetchDeps for how funcs are treated.
func (c *Controller[M, ID]) SetTransformDeps(deps ...any) {
	c.mu.Lock()
	c.transformDeps = append([]any(nil), deps...)
	c.mu.Unlock()
	c.triggerReconcile()
}

// SetFetchDeps replaces the dependency list gating fetches. A structurally
// different list starts exactly one fetch; an equal list does nothing.
// Functions never compare equal, so a non-nil func in deps refetches on every
// call; pass a stable key instead.
func (c *Controller[M, ID]) SetFetchDeps(deps ...any) {
	deps = append([]any(nil), deps...)
	c.mu.Lock()
	c.fetchDeps = deps
	fetch := c.mount.IsMounted() && c.fetchGate.Changed(deps)
	c.mu.Unlock()

	if fetch {
		c.startFetch()
	}
}

// Refetch runs the service again regardless of the fetch dependencies.
func (c *Controller[M, ID]) Refetch() {
	if !c.mount.IsMounted() {
		return
	}
	c.startFetch()
}

// Select handles a user selection. Selecting the empty string clears the
// selection for string ids.
func (c *Controller[M, ID]) Select(value ID) {
	if isEmptyValue(value) {
		c.Clear()
		return
	}

	c.mu.Lock()
	var option *Option[ID, M]
	for i := range c.st.options {
		if c.st.options[i].Value == value {
			opt := c.st.options[i]
			option = &opt
			break
		}
	}
	c.mu.Unlock()

	if c.opts.OnChange != nil {
		v := value
		c.opts.OnChange(&v, option)
	}
}

// SelectIndex selects the option at index in the current option list. It
// reports false when index is out of range.
func (c *Controller[M, ID]) SelectIndex(index int) bool {
	c.mu.Lock()
	if index < 0 || index >= len(c.st.options) {
		c.mu.Unlock()
		return false
	}
	value := c.st.options[index].Value
	c.mu.Unlock()

	c.Select(value)
	return true
}

// Clear handles the user clearing the selection.
func (c *Controller[M, ID]) Clear() {
	if c.opts.OnChange != nil {
		c.opts.OnChange(nil, nil)
	}
}

// View returns the current snapshot.
func (c *Controller[M, ID]) View() View[M, ID] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// Subscribe registers fn to receive a snapshot after every state transition.
// Snapshots are delivered one at a time and never older than one already
// delivered; under concurrent transitions intermediate snapshots may be
// skipped. fn may call back into the controller, the resulting snapshot
// follows once fn returns. The returned function removes the subscription.
func (c *Controller[M, ID]) Subscribe(fn func(View[M, ID])) func() {
	if fn == nil {
		return func() {}
	}
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

func (c *Controller[M, ID]) viewLocked() View[M, ID] {
	st := c.st
	display := st.effective
	if c.opts.LoadingText != nil && !st.preparedOnce {
		var value *ID
		if st.hasValue {
			v := st.value
			value = &v
		}
		display = Display[ID]{
			Kind:     DisplayLoading,
			Value:    st.value,
			HasValue: st.hasValue,
			Text:     c.opts.LoadingText(value),
		}
	}

	return View[M, ID]{
		Options:      append([]Option[ID, M](nil), st.options...),
		Display:      display,
		Loading:      c.opts.Props.Loading || st.inFlight > 0,
		Disabled:     c.opts.Props.Disabled || !st.preparedOnce,
		Fetching:     st.inFlight > 0,
		PreparedOnce: st.preparedOnce,
		IsWarning:    st.isWarning,
		Props:        c.opts.Props,
	}
}

func (c *Controller[M, ID]) transformKeyLocked() []any {
	key := make([]any, 0, len(c.transformDeps)+1)
	if c.st.hasValue {
		key = append(key, c.st.value)
	} else {
		key = append(key, nil)
	}
	return append(key, c.transformDeps...)
}

// triggerReconcile gates on the value and transform deps. The key is read and
// recorded under one lock so the gate never lags behind the state.
func (c *Controller[M, ID]) triggerReconcile() {
	c.mu.Lock()
	changed := c.mount.IsMounted() && c.transformGate.Changed(c.transformKeyLocked())
	c.mu.Unlock()

	if changed {
		c.dispatch(event[M, ID]{kind: eventReconcile})
	}
}

func (c *Controller[M, ID]) startFetch() {
	fx := c.dispatch(event[M, ID]{kind: eventFetchStart})
	generation := fx.generation
	if generation == 0 {
		// unmounted
		return
	}

	c.mu.Lock()
	ctx := c.ctx
	c.mu.Unlock()

	c.tasks.Go(func() {
		models, err := c.fetch(ctx)
		c.dispatch(event[M, ID]{
			kind:       eventFetchDone,
			generation: generation,
			models:     models,
			err:        err,
		})
	})
}

// fetch calls the service, turning a panic into an error.
func (c *Controller[M, ID]) fetch(ctx context.Context) (models []M, err error) {
	var pc panics.Catcher
	pc.Try(func() {
		models, err = c.service.Fetch(ctx)
	})
	if recovered := pc.Recovered(); recovered != nil {
		return nil, recovered.AsError()
	}
	return models, err
}

func (c *Controller[M, ID]) dispatch(ev event[M, ID]) effects {
	c.mu.Lock()
	st, fx := c.reducer.reduce(c.st, ev)
	c.st = st
	var version uint64
	if fx.changed {
		c.version++
		version = c.version
	}
	view := c.viewLocked()
	c.mu.Unlock()

	if fx.fetchErr != nil {
		c.logger.Warn("selectsingle: fetch failed",
			zap.Error(fx.fetchErr),
			zap.Uint64("generation", fx.generation),
		)
	}
	if fx.discarded {
		c.logger.Debug("selectsingle: fetch result discarded",
			zap.Uint64("generation", fx.generation),
		)
	}
	if fx.prepareDone != nil && c.opts.OnPrepareDone != nil {
		c.opts.OnPrepareDone(*fx.prepareDone)
	}
	if fx.changed {
		c.notify(view, version)
	}
	return fx
}

// notify queues view and, unless another caller is already delivering,
// drains the queue. Only the newest pending snapshot is kept.
func (c *Controller[M, ID]) notify(view View[M, ID], version uint64) {
	c.subMu.Lock()
	if version > c.pendingVersion {
		c.pending, c.pendingVersion = view, version
	}
	if c.delivering {
		c.subMu.Unlock()
		return
	}
	c.delivering = true

	for c.pendingVersion > c.delivered {
		next := c.pending
		c.delivered = c.pendingVersion
		subs := make([]func(View[M, ID]), 0, len(c.subs))
		for _, fn := range c.subs {
			subs = append(subs, fn)
		}
		c.subMu.Unlock()

		for _, fn := range subs {
			fn(next)
		}
		c.subMu.Lock()
	}
	c.delivering = false
	c.subMu.Unlock()
}

func isEmptyValue[ID comparable](value ID) bool {
	s, ok := any(value).(string)
	return ok && s == ""
}
