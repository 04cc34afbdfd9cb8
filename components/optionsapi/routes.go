package optionsapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-selectkit/pkg/selectsingle"
)

// Mux is the minimal interface required to register a net/http handler.
// It is satisfied by *http.ServeMux and chi.Router.
type Mux interface {
	Handle(pattern string, handler http.Handler)
}

// MountPath returns the full mount path for the component route under basePath.
func MountPath(basePath string, fns ...OptionFn) string {
	opts := NewOptions(fns...)
	return mountPath(basePath, opts.RoutePath)
}

// RegisterRoutes registers a handler for sel under basePath on mux.
func RegisterRoutes[M any, ID comparable](mux Mux, basePath string, sel selectsingle.Selector[M, ID], fns ...OptionFn) (string, error) {
	return RegisterRoutesWithOptions(mux, basePath, sel, NewOptions(fns...))
}

// RegisterRoutesWithOptions registers a handler under basePath using a
// pre-built Options value.
func RegisterRoutesWithOptions[M any, ID comparable](mux Mux, basePath string, sel selectsingle.Selector[M, ID], opts Options) (string, error) {
	if mux == nil {
		return "", fmt.Errorf("optionsapi: missing mux")
	}
	if sel == nil {
		return "", fmt.Errorf("optionsapi: missing selector")
	}
	opts = NewOptions(func(o *Options) { *o = opts })
	pattern := mountPath(basePath, opts.RoutePath)
	mux.Handle(pattern, HandlerWithOptions(sel, opts))
	return pattern, nil
}

func mountPath(basePath, routePath string) string {
	basePath = strings.TrimSpace(basePath)
	routePath = strings.TrimSpace(routePath)

	if routePath == "" {
		routePath = "/"
	}
	if !strings.HasPrefix(routePath, "/") {
		routePath = "/" + routePath
	}

	if basePath == "" || basePath == "/" {
		return routePath
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	basePath = strings.TrimRight(basePath, "/")
	return basePath + routePath
}
