package selectsingle

// state is the single-owner cell behind a Controller. It is only written by
// reduce, always under the controller lock.
type state[M any, ID comparable] struct {
	value    ID
	hasValue bool

	// models is the fetch state: the last accepted fetch result merged with
	// the additional models, or default+additional before the first fetch.
	models []M

	options      []Option[ID, M]
	effective    Display[ID]
	isWarning    bool
	preparedOnce bool

	mounted  bool
	closed   bool
	inFlight int
	// dispatched is the generation of the most recently started fetch.
	dispatched uint64
}

type eventKind int

const (
	eventMount eventKind = iota
	eventUnmount
	eventSetValue
	eventReconcile
	eventFetchStart
	eventFetchDone
)

type event[M any, ID comparable] struct {
	kind       eventKind
	value      ID
	hasValue   bool
	generation uint64
	models     []M
	err        error
}

// effects are produced by reduce and carried out by the controller once the
// lock is released.
type effects struct {
	prepareDone *PrepareDoneParams
	fetchErr    error
	discarded   bool
	generation  uint64
	changed     bool
}

type reducer[M any, ID comparable] struct {
	transform   TransformFunc[M, ID]
	warningText WarningTextFunc[ID]
	additional  []M
	policy      FetchPolicy
}

func initialState[M any, ID comparable](opts Options[M, ID], transform TransformFunc[M, ID]) state[M, ID] {
	models := concatModels(opts.DefaultModels, opts.AdditionalModels)
	st := state[M, ID]{
		value:     opts.Value,
		hasValue:  opts.HasValue,
		models:    models,
		effective: valueDisplay(opts.Value, opts.HasValue),
	}
	if transform != nil {
		st.options, _ = buildOptions(models, transform, opts.Value, opts.HasValue)
	}
	return st
}

func (r reducer[M, ID]) reduce(st state[M, ID], ev event[M, ID]) (state[M, ID], effects) {
	var fx effects
	if st.closed && ev.kind != eventFetchDone {
		return st, fx
	}

	switch ev.kind {
	case eventMount:
		st.mounted = true
		fx.changed = true

	case eventUnmount:
		st.mounted = false
		st.closed = true
		st.inFlight = 0
		fx.changed = true

	case eventSetValue:
		st.value = ev.value
		st.hasValue = ev.hasValue
		if !st.mounted {
			st.effective = valueDisplay(ev.value, ev.hasValue)
		}
		fx.changed = true

	case eventReconcile:
		if !st.mounted || st.inFlight > 0 {
			return st, fx
		}
		st, fx = r.reconcile(st, st.models)

	case eventFetchStart:
		st.dispatched++
		st.inFlight++
		fx.generation = st.dispatched
		fx.changed = true

	case eventFetchDone:
		fx.generation = ev.generation
		if st.closed {
			fx.discarded = true
			return st, fx
		}
		if st.inFlight > 0 {
			st.inFlight--
		}
		fx.changed = true
		if ev.err != nil {
			fx.fetchErr = ev.err
			// Without any completed pass the select would stay disabled;
			// fall back to the models it already holds.
			if !st.preparedOnce && st.inFlight == 0 {
				var rfx effects
				st, rfx = r.reconcile(st, st.models)
				fx.prepareDone = rfx.prepareDone
			}
			return st, fx
		}
		if r.policy == FetchPolicyLatestDispatch && ev.generation != st.dispatched {
			fx.discarded = true
			return st, fx
		}
		st.models = concatModels(ev.models, r.additional)
		var rfx effects
		st, rfx = r.reconcile(st, st.models)
		fx.prepareDone = rfx.prepareDone
	}

	return st, fx
}

// reconcile recomputes options and the effective value from models.
func (r reducer[M, ID]) reconcile(st state[M, ID], models []M) (state[M, ID], effects) {
	options, isWarning := buildOptions(models, r.transform, st.value, st.hasValue)

	effective := valueDisplay(st.value, st.hasValue)
	if st.hasValue && isWarning && r.warningText != nil {
		effective = Display[ID]{
			Kind:     DisplayWarning,
			Value:    st.value,
			HasValue: true,
			Text:     r.warningText(st.value),
		}
	}

	st.options = options
	st.isWarning = isWarning
	st.effective = effective
	st.preparedOnce = true

	return st, effects{
		prepareDone: &PrepareDoneParams{IsWarning: isWarning},
		changed:     true,
	}
}

// buildOptions transforms models, attaches raw data and drops later
// duplicates of a value. isWarning reports that hasValue is set and no
// produced option carries value.
func buildOptions[M any, ID comparable](models []M, transform TransformFunc[M, ID], value ID, hasValue bool) ([]Option[ID, M], bool) {
	isWarning := hasValue
	options := make([]Option[ID, M], 0, len(models))
	seen := make(map[ID]struct{}, len(models))

	for i, model := range models {
		opt := transform(model, i)
		opt.RawData = model
		if hasValue && opt.Value == value {
			isWarning = false
		}
		if _, dup := seen[opt.Value]; dup {
			continue
		}
		seen[opt.Value] = struct{}{}
		options = append(options, opt)
	}

	return options, isWarning
}

func valueDisplay[ID comparable](value ID, hasValue bool) Display[ID] {
	if !hasValue {
		return Display[ID]{Kind: DisplayEmpty}
	}
	return Display[ID]{Kind: DisplayValue, Value: value, HasValue: true}
}

func concatModels[M any](a, b []M) []M {
	out := make([]M, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
