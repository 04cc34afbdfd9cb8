package optionsapi

import (
	"strings"

	"github.com/goliatone/go-selectkit/pkg/selectsingle"
)

// Search filters options whose label contains query, case-insensitively.
// Prefix matches come first; relative order is otherwise kept. An empty query
// keeps every option. The result is capped by the clamped limit.
func Search[M any, ID comparable](options []selectsingle.Option[ID, M], query string, limit int, opts Options) []selectsingle.Option[ID, M] {
	limit = clampLimit(limit, opts)

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		if len(options) > limit {
			options = options[:limit]
		}
		return append([]selectsingle.Option[ID, M]{}, options...)
	}

	var prefix, contains []selectsingle.Option[ID, M]
	for _, opt := range options {
		label := strings.ToLower(opt.Label)
		switch {
		case strings.HasPrefix(label, query):
			prefix = append(prefix, opt)
		case strings.Contains(label, query):
			contains = append(contains, opt)
		}
	}

	out := append(prefix, contains...)
	if len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []selectsingle.Option[ID, M]{}
	}
	return out
}

func clampLimit(limit int, opts Options) int {
	if limit <= 0 {
		limit = opts.DefaultLimit
	}
	if limit > opts.MaxLimit {
		limit = opts.MaxLimit
	}
	return limit
}
