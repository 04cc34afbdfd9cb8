// Package selectkit wires the record-based pieces together: a record service,
// a field mapping and the HTML renderer.
package selectkit

import (
	"context"
	"io/fs"

	"github.com/goliatone/go-selectkit/pkg/record"
	"github.com/goliatone/go-selectkit/pkg/renderers/vanilla"
	"github.com/goliatone/go-selectkit/pkg/selectsingle"
)

// RecordController is a controller over generic records keyed by string ids.
type RecordController = selectsingle.Controller[record.Record, string]

// NewRecordController builds a controller whose options come from svc and
// are mapped with mapping.
func NewRecordController(svc selectsingle.Service[record.Record], mapping record.Mapping, options ...selectsingle.OptionFn[record.Record, string]) *RecordController {
	return selectsingle.New(svc, record.FieldTransform(mapping), options...)
}

// RenderHTML renders view with a vanilla renderer built from options.
func RenderHTML[M any, ID comparable](ctx context.Context, view selectsingle.View[M, ID], options ...vanilla.Option) ([]byte, error) {
	renderer, err := vanilla.New(options...)
	if err != nil {
		return nil, err
	}
	return vanilla.Render(ctx, renderer, view)
}

// EmbeddedTemplates exposes the built-in select templates so callers can
// reuse or extend them without importing the renderer package directly.
func EmbeddedTemplates() fs.FS {
	return vanilla.TemplatesFS()
}
