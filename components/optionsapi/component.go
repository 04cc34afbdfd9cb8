package optionsapi

import (
	"net/http"

	"github.com/goliatone/go-selectkit/pkg/selectsingle"
)

// Component bundles a selector with its handler configuration and routing
// helpers.
type Component[M any, ID comparable] struct {
	sel  selectsingle.Selector[M, ID]
	opts Options
}

// New constructs a component serving sel with default options plus any
// overrides.
func New[M any, ID comparable](sel selectsingle.Selector[M, ID], fns ...OptionFn) *Component[M, ID] {
	return &Component[M, ID]{sel: sel, opts: NewOptions(fns...)}
}

// Options returns a copy of the component configuration.
func (c *Component[M, ID]) Options() Options {
	if c == nil {
		return DefaultOptions()
	}
	return NewOptions(func(o *Options) { *o = c.opts })
}

// Handler returns the net/http handler for the component.
func (c *Component[M, ID]) Handler() http.Handler {
	if c == nil {
		return HandlerWithOptions[M, ID](nil, DefaultOptions())
	}
	return HandlerWithOptions(c.sel, c.opts)
}

// RegisterRoutes registers the component handler under basePath on mux.
func (c *Component[M, ID]) RegisterRoutes(mux Mux, basePath string) (string, error) {
	if c == nil {
		return RegisterRoutesWithOptions[M, ID](mux, basePath, nil, DefaultOptions())
	}
	return RegisterRoutesWithOptions(mux, basePath, c.sel, c.opts)
}
