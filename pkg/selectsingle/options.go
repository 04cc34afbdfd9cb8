package selectsingle

import "go.uber.org/zap"

// FetchPolicy decides which fetch result is kept when fetches overlap.
type FetchPolicy string

const (
	// FetchPolicyLastResolved keeps whichever fetch resolves last, regardless
	// of the order the fetches were dispatched in.
	FetchPolicyLastResolved FetchPolicy = "last-resolved"
	// FetchPolicyLatestDispatch keeps only the result of the most recently
	// dispatched fetch; results of superseded fetches are discarded.
	FetchPolicyLatestDispatch FetchPolicy = "latest-dispatch"
)

// Options configures a Controller.
type Options[M any, ID comparable] struct {
	Value    ID
	HasValue bool

	FetchDeps     []any
	TransformDeps []any

	// DefaultModels are shown until the first successful fetch.
	DefaultModels []M
	// AdditionalModels are appended to every fetch result, for example records
	// the service no longer returns but the value still references.
	AdditionalModels []M

	OnChange      ChangeFunc[M, ID]
	OnPrepareDone PrepareDoneFunc
	WarningText   WarningTextFunc[ID]
	LoadingText   LoadingTextFunc[ID]

	Props       Props
	FetchPolicy FetchPolicy
	Logger      *zap.Logger
}

// OptionFn mutates Options.
type OptionFn[M any, ID comparable] func(*Options[M, ID])

// DefaultOptions returns the baseline configuration.
func DefaultOptions[M any, ID comparable]() Options[M, ID] {
	return Options[M, ID]{
		Props:       DefaultProps(),
		FetchPolicy: FetchPolicyLastResolved,
		Logger:      zap.NewNop(),
	}
}

// NewOptions applies fns over DefaultOptions.
func NewOptions[M any, ID comparable](fns ...OptionFn[M, ID]) Options[M, ID] {
	opts := DefaultOptions[M, ID]()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.FetchPolicy == "" {
		opts.FetchPolicy = FetchPolicyLastResolved
	}
	opts.FetchDeps = append([]any(nil), opts.FetchDeps...)
	opts.TransformDeps = append([]any(nil), opts.TransformDeps...)
	opts.DefaultModels = append([]M(nil), opts.DefaultModels...)
	opts.AdditionalModels = append([]M(nil), opts.AdditionalModels...)
	return opts
}

// WithValue sets the initial controlled value.
func WithValue[M any, ID comparable](value ID) OptionFn[M, ID] {
	return func(o *Options[M, ID]) {
		o.Value = value
		o.HasValue = true
	}
}

// WithFetchDeps sets the initial fetch dependency list.
func WithFetchDeps[M any, ID comparable](deps ...any) OptionFn[M, ID] {
	return func(o *Options[M, ID]) {
		o.FetchDeps = append([]any(nil), deps...)
	}
}

// WithTransformDeps sets the initial transform dependency list.
func WithTransformDeps[M any, ID comparable](deps ...any) OptionFn[M, ID] {
	return func(o *Options[M, ID]) {
		o.TransformDeps = append([]any(nil), deps...)
	}
}

func WithDefaultModels[M any, ID comparable](models ...M) OptionFn[M, ID] {
	return func(o *Options[M, ID]) {
		o.DefaultModels = append([]M(nil), models...)
	}
}

func WithAdditionalModels[M any, ID comparable](models ...M) OptionFn[M, ID] {
	return func(o *Options[M, ID]) {
		o.AdditionalModels = append([]M(nil), models...)
	}
}

func WithOnChange[M any, ID comparable](fn ChangeFunc[M, ID]) OptionFn[M, ID] {
	return func(o *Options[M, ID]) {
		o.OnChange = fn
	}
}

func WithOnPrepareDone[M any, ID comparable](fn PrepareDoneFunc) OptionFn[M, ID] {
	return func(o *Options[M, ID]) {
		o.OnPrepareDone = fn
	}
}

func WithWarningText[M any, ID comparable](fn WarningTextFunc[ID]) OptionFn[M, ID] {
	return func(o *Options[M, ID]) {
		o.WarningText = fn
	}
}

func WithLoadingText[M any, ID comparable](fn LoadingTextFunc[ID]) OptionFn[M, ID] {
	return func(o *Options[M, ID]) {
		o.LoadingText = fn
	}
}

// WithProps replaces the presentation props, defaults included.
func WithProps[M any, ID comparable](props Props) OptionFn[M, ID] {
	return func(o *Options[M, ID]) {
		o.Props = props
	}
}

func WithFetchPolicy[M any, ID comparable](policy FetchPolicy) OptionFn[M, ID] {
	return func(o *Options[M, ID]) {
		o.FetchPolicy = policy
	}
}

func WithLogger[M any, ID comparable](logger *zap.Logger) OptionFn[M, ID] {
	return func(o *Options[M, ID]) {
		o.Logger = logger
	}
}
