package template

import (
	"io"
)

// TemplateRenderer is the engine contract renderers rely on. Rendered output
// is returned and, when writers are supplied, copied to each of them.
type TemplateRenderer interface {
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
}
