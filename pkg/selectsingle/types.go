package selectsingle

import "context"

// Service fetches the models backing a controller. Implementations should
// honour ctx cancellation; the controller cancels it on Unmount.
type Service[M any] interface {
	Fetch(ctx context.Context) ([]M, error)
}

// ServiceFunc adapts a function to the Service interface.
type ServiceFunc[M any] func(ctx context.Context) ([]M, error)

// Fetch calls f.
func (f ServiceFunc[M]) Fetch(ctx context.Context) ([]M, error) {
	return f(ctx)
}

// SyncService adapts a synchronous, infallible model provider.
func SyncService[M any](fn func() []M) Service[M] {
	return ServiceFunc[M](func(ctx context.Context) ([]M, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if fn == nil {
			return nil, nil
		}
		return fn(), nil
	})
}

// Option is a display-ready entry derived from a model.
type Option[ID comparable, M any] struct {
	Value    ID             `json:"value"`
	Label    string         `json:"label"`
	Disabled bool           `json:"disabled,omitempty"`
	Extra    map[string]any `json:"extra,omitempty"`
	// RawData is the record the option was produced from. The controller
	// always overwrites whatever the transform put here.
	RawData M `json:"-"`
}

// TransformFunc converts a model into an option. index is the position of the
// model in the current fetch state.
type TransformFunc[M any, ID comparable] func(model M, index int) Option[ID, M]

// ChangeFunc receives user selections. Both arguments are nil when the
// selection was cleared. option is nil when the value is not among the current
// options.
type ChangeFunc[M any, ID comparable] func(value *ID, option *Option[ID, M])

// PrepareDoneParams is passed to OnPrepareDone after every reconciliation
// pass.
type PrepareDoneParams struct {
	// IsWarning is true when a value is set and none of the produced options
	// carries it.
	IsWarning bool
}

// PrepareDoneFunc observes completed reconciliation passes.
type PrepareDoneFunc func(PrepareDoneParams)

// WarningTextFunc builds the text shown in place of an unmatched value.
type WarningTextFunc[ID comparable] func(value ID) string

// LoadingTextFunc builds the text shown until the first reconciliation pass
// completes. value is nil when no value is set.
type LoadingTextFunc[ID comparable] func(value *ID) string

// DisplayKind tags the Display union.
type DisplayKind string

const (
	DisplayEmpty   DisplayKind = "empty"
	DisplayValue   DisplayKind = "value"
	DisplayWarning DisplayKind = "warning"
	DisplayLoading DisplayKind = "loading"
)

// Display is what the select primitive should show as its current value.
//
// For DisplayValue, Value is the selected id. For DisplayWarning and
// DisplayLoading, Text carries the substituted label and Value the controlled
// value when HasValue is set.
type Display[ID comparable] struct {
	Kind     DisplayKind `json:"kind"`
	Value    ID          `json:"value"`
	HasValue bool        `json:"hasValue"`
	Text     string      `json:"text,omitempty"`
}

// Props are presentation settings forwarded untouched to select primitives.
type Props struct {
	ID                   string `json:"id,omitempty" yaml:"id"`
	Name                 string `json:"name,omitempty" yaml:"name"`
	Placeholder          string `json:"placeholder,omitempty" yaml:"placeholder"`
	AllowClear           bool   `json:"allowClear" yaml:"allowClear"`
	AutoClearSearchValue bool   `json:"autoClearSearchValue,omitempty" yaml:"autoClearSearchValue"`
	ClassName            string `json:"className,omitempty" yaml:"className"`
	Direction            string `json:"direction,omitempty" yaml:"direction"`
	Disabled             bool   `json:"disabled,omitempty" yaml:"disabled"`
	Loading              bool   `json:"loading,omitempty" yaml:"loading"`
	NotFoundContent      string `json:"notFoundContent,omitempty" yaml:"notFoundContent"`
	OptionLabelProp      string `json:"optionLabelProp,omitempty" yaml:"optionLabelProp"`
	ReadOnly             bool   `json:"readOnly,omitempty" yaml:"readOnly"`
	ShowSearch           bool   `json:"showSearch,omitempty" yaml:"showSearch"`
	Size                 string `json:"size,omitempty" yaml:"size"`
	ValueVariant         string `json:"valueVariant,omitempty" yaml:"valueVariant"`
}

// DefaultProps returns the presentation defaults (clearing allowed).
func DefaultProps() Props {
	return Props{AllowClear: true}
}

// View is an immutable snapshot handed to select primitives.
type View[M any, ID comparable] struct {
	Options      []Option[ID, M]
	Display      Display[ID]
	Loading      bool
	Disabled     bool
	Fetching     bool
	PreparedOnce bool
	IsWarning    bool
	Props        Props
}

// IndexOf returns the position of value among the view options, or -1.
func (v View[M, ID]) IndexOf(value ID) int {
	for i, opt := range v.Options {
		if opt.Value == value {
			return i
		}
	}
	return -1
}

// SelectedIndex returns the index of the displayed value, or -1 when the
// display does not point at a listed option.
func (v View[M, ID]) SelectedIndex() int {
	if v.Display.Kind != DisplayValue {
		return -1
	}
	return v.IndexOf(v.Display.Value)
}

// Selector is the surface select primitives consume: a view to render and the
// two user intents. *Controller satisfies it.
type Selector[M any, ID comparable] interface {
	View() View[M, ID]
	Select(value ID)
	Clear()
}
