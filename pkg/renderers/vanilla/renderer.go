// Package vanilla renders selectsingle views as plain HTML <select> markup.
package vanilla

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	theme "github.com/goliatone/go-theme"
	"github.com/rs/xid"

	rendertemplate "github.com/goliatone/go-selectkit/pkg/render/template"
	gotemplate "github.com/goliatone/go-selectkit/pkg/render/template/gotemplate"
	"github.com/goliatone/go-selectkit/pkg/selectsingle"
)

const (
	baseClass    = "selectkit"
	templateName = "templates/select.tmpl"
)

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templatesDir     string
	templateRenderer rendertemplate.TemplateRenderer
	theme            *theme.RendererConfig
	newID            func() string
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS. The bundle
// must provide templates/select.tmpl.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir overlays templates from a directory on disk. Files found
// there (e.g. templates/select.tmpl) replace the bundled ones.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		cfg.templatesDir = strings.TrimSpace(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithTheme applies a resolved go-theme configuration.
func WithTheme(cfg *theme.RendererConfig) Option {
	return func(c *config) {
		c.theme = cfg
	}
}

// WithIDGenerator overrides how element ids are minted when the props carry
// none.
func WithIDGenerator(fn func() string) Option {
	return func(cfg *config) {
		if fn != nil {
			cfg.newID = fn
		}
	}
}

type Renderer struct {
	templates rendertemplate.TemplateRenderer
	theme     map[string]any
	newID     func() string
}

// New constructs the vanilla renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{
		templateFS: TemplatesFS(),
		newID:      func() string { return baseClass + "-" + xid.New().String() },
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := gotemplate.New(
			gotemplate.WithBaseDir(cfg.templatesDir),
			gotemplate.WithFS(cfg.templateFS),
			gotemplate.WithExtension(".tmpl"),
		)
		if err != nil {
			return nil, fmt.Errorf("vanilla renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}

	return &Renderer{
		templates: renderer,
		theme:     buildThemeContext(cfg.theme),
		newID:     cfg.newID,
	}, nil
}

func (r *Renderer) Name() string {
	return "vanilla"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render renders view with r. It is a function rather than a method because
// the view is generic over the model and id types.
func Render[M any, ID comparable](ctx context.Context, r *Renderer, view selectsingle.View[M, ID]) ([]byte, error) {
	if r == nil || r.templates == nil {
		return nil, fmt.Errorf("vanilla renderer: template renderer is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := r.templates.RenderTemplate(templateName, r.templateData(selectData(view, r.newID), optionData(view), syntheticData(view)))
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render template: %w", err)
	}
	return []byte(result), nil
}

func (r *Renderer) templateData(sel map[string]any, options []map[string]any, synthetic map[string]any) map[string]any {
	data := map[string]any{
		"select":  sel,
		"options": options,
		"theme":   r.theme,
	}
	if synthetic != nil {
		data["synthetic"] = synthetic
	}
	return data
}

func selectData[M any, ID comparable](view selectsingle.View[M, ID], newID func() string) map[string]any {
	props := view.Props

	id := strings.TrimSpace(props.ID)
	if id == "" {
		id = newID()
	}

	kind := view.Display.Kind
	if kind == "" {
		kind = selectsingle.DisplayEmpty
	}

	classes := []string{baseClass, baseClass + "--" + string(kind)}
	if props.Size != "" {
		classes = append(classes, baseClass+"--"+props.Size)
	}
	if extra := sanitizeClassList(props.ClassName); extra != "" {
		classes = append(classes, extra)
	}

	return map[string]any{
		"id":          id,
		"name":        props.Name,
		"className":   strings.Join(classes, " "),
		"state":       string(kind),
		"busy":        view.Loading,
		"disabled":    view.Disabled,
		"readOnly":    props.ReadOnly,
		"direction":   props.Direction,
		"placeholder": sanitizeLabel(props.Placeholder),
		"blank":       props.AllowClear || props.Placeholder != "",
		"empty":       kind == selectsingle.DisplayEmpty,
		"notFound":    sanitizeLabel(props.NotFoundContent),
	}
}

func optionData[M any, ID comparable](view selectsingle.View[M, ID]) []map[string]any {
	selected := view.SelectedIndex()
	out := make([]map[string]any, 0, len(view.Options))
	for i, opt := range view.Options {
		label := sanitizeLabel(opt.Label)
		if label == "" {
			label = fmt.Sprint(opt.Value)
		}
		out = append(out, map[string]any{
			"value":    fmt.Sprint(opt.Value),
			"label":    label,
			"selected": i == selected,
			"disabled": opt.Disabled,
		})
	}
	return out
}

// syntheticData returns the placeholder row that carries warning or loading
// text, or nil when the display points at a real option or nothing.
func syntheticData[M any, ID comparable](view selectsingle.View[M, ID]) map[string]any {
	display := view.Display
	switch display.Kind {
	case selectsingle.DisplayWarning, selectsingle.DisplayLoading:
	default:
		return nil
	}

	value := ""
	if display.HasValue {
		value = fmt.Sprint(display.Value)
	}
	return map[string]any{
		"value":    value,
		"label":    sanitizeLabel(display.Text),
		"state":    string(display.Kind),
		"disabled": display.Kind == selectsingle.DisplayLoading,
	}
}
