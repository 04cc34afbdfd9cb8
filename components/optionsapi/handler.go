package optionsapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-selectkit/pkg/selectsingle"
)

const maxBodyBytes = 1 << 20

type HTTPError interface {
	error
	StatusCode() int
}

type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e StatusError) Unwrap() error { return e.Err }

func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

var (
	errMissingValue   = errors.New("optionsapi: request body must carry a value field")
	errSelectDisabled = errors.New("optionsapi: select is disabled")
	errUnknownOption  = errors.New("optionsapi: value is not an available option")
)

// ViewResponse is the JSON body returned by GET, HEAD and POST.
type ViewResponse[M any, ID comparable] struct {
	Data     []selectsingle.Option[ID, M] `json:"data"`
	Value    selectsingle.Display[ID]     `json:"value"`
	Loading  bool                         `json:"loading"`
	Disabled bool                         `json:"disabled"`
	Warning  bool                         `json:"warning"`
}

type selectRequest struct {
	Value json.RawMessage `json:"value"`
}

// Handler builds a net/http handler serving sel with default options plus
// any overrides.
func Handler[M any, ID comparable](sel selectsingle.Selector[M, ID], fns ...OptionFn) http.Handler {
	return HandlerWithOptions(sel, NewOptions(fns...))
}

// HandlerWithOptions builds a net/http handler from a pre-constructed Options
// value. Defaults are re-applied so a zero Options is usable.
func HandlerWithOptions[M any, ID comparable](sel selectsingle.Selector[M, ID], opts Options) http.Handler {
	opts = NewOptions(func(o *Options) { *o = opts })
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r == nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if sel == nil {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
			return
		}

		if !methodAllowed(r.Method, opts) {
			w.Header().Set("Allow", allowedMethods(opts))
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		if opts.Guard != nil {
			if err := opts.Guard(r); err != nil {
				opts.Logger.Debug("optionsapi: guard rejected request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				writeError(w, err, http.StatusForbidden)
				return
			}
		}

		if r.Method == http.MethodPost {
			if err := applySelection(r, sel); err != nil {
				opts.Logger.Debug("optionsapi: selection rejected", zap.Error(err))
				writeError(w, err, http.StatusBadRequest)
				return
			}
		}

		view := sel.View()
		query := r.URL.Query().Get(opts.SearchParam)
		limit := parseInt(r.URL.Query().Get(opts.LimitParam))

		payload := ViewResponse[M, ID]{
			Data:     Search(view.Options, query, limit, opts),
			Value:    view.Display,
			Loading:  view.Loading,
			Disabled: view.Disabled,
			Warning:  view.IsWarning,
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}

		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(true)
		if err := enc.Encode(payload); err != nil {
			opts.Logger.Warn("optionsapi: encode response", zap.Error(err))
		}
	})
}

// applySelection decodes {"value": ...} and dispatches Select or Clear. Only
// options present in the current view and not disabled can be selected.
func applySelection[M any, ID comparable](r *http.Request, sel selectsingle.Selector[M, ID]) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return StatusError{Code: http.StatusBadRequest, Err: err}
	}

	var req selectRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return StatusError{Code: http.StatusBadRequest, Err: err}
	}
	if len(req.Value) == 0 {
		return StatusError{Code: http.StatusBadRequest, Err: errMissingValue}
	}

	view := sel.View()
	if view.Disabled || view.Props.ReadOnly {
		return StatusError{Code: http.StatusConflict, Err: errSelectDisabled}
	}

	if bytes.Equal(bytes.TrimSpace(req.Value), []byte("null")) {
		sel.Clear()
		return nil
	}

	var value ID
	if err := json.Unmarshal(req.Value, &value); err != nil {
		return StatusError{Code: http.StatusBadRequest, Err: err}
	}

	idx := view.IndexOf(value)
	if idx < 0 || view.Options[idx].Disabled {
		return StatusError{Code: http.StatusUnprocessableEntity, Err: errUnknownOption}
	}
	sel.Select(value)
	return nil
}

func methodAllowed(method string, opts Options) bool {
	switch method {
	case http.MethodGet, http.MethodHead:
		return true
	case http.MethodPost:
		return !opts.ReadOnly
	default:
		return false
	}
}

func allowedMethods(opts Options) string {
	methods := []string{http.MethodGet, http.MethodHead}
	if !opts.ReadOnly {
		methods = append(methods, http.MethodPost)
	}
	return strings.Join(methods, ", ")
}

func writeError(w http.ResponseWriter, err error, fallback int) {
	if w == nil {
		return
	}
	code := fallback
	var httpErr HTTPError
	if errors.As(err, &httpErr) && httpErr != nil {
		code = httpErr.StatusCode()
		if code <= 0 {
			code = fallback
		}
	}
	http.Error(w, http.StatusText(code), code)
}

func parseInt(raw string) int {
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return value
}
