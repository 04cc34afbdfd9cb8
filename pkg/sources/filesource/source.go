// Package filesource reads option records from JSON or YAML files.
package filesource

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-selectkit/pkg/record"
	"github.com/goliatone/go-selectkit/pkg/selectsingle"
)

// Source reads every file matching a glob pattern on each fetch, so edits are
// picked up by the next refetch. Files are read in lexical order and their
// records concatenated.
type Source struct {
	fsys        fs.FS
	pattern     string
	resultsPath string
}

var _ selectsingle.Service[record.Record] = (*Source)(nil)

// Option configures a Source.
type Option func(*Source)

// WithResultsPath selects the array inside each document, e.g. "items".
func WithResultsPath(path string) Option {
	return func(s *Source) {
		s.resultsPath = strings.TrimSpace(path)
	}
}

// New builds a Source reading files that match pattern (fs.Glob syntax) in
// fsys.
func New(fsys fs.FS, pattern string, options ...Option) *Source {
	s := &Source{fsys: fsys, pattern: strings.TrimSpace(pattern)}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

// Fetch decodes the matching files.
func (s *Source) Fetch(ctx context.Context) ([]record.Record, error) {
	if s.fsys == nil {
		return nil, fmt.Errorf("filesource: filesystem is required")
	}
	matches, err := fs.Glob(s.fsys, s.pattern)
	if err != nil {
		return nil, fmt.Errorf("filesource: glob %q: %w", s.pattern, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("filesource: no files match %q", s.pattern)
	}
	sort.Strings(matches)

	var out []record.Record
	for _, path := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !isDataFile(path) {
			continue
		}
		data, err := fs.ReadFile(s.fsys, path)
		if err != nil {
			return nil, fmt.Errorf("filesource: read %s: %w", path, err)
		}
		payload, err := Decode(data, path)
		if err != nil {
			return nil, err
		}
		out = append(out, record.ExtractResults(payload, s.resultsPath)...)
	}
	return out, nil
}

// Decode parses JSON or YAML. The extension picks the decoder; unknown
// extensions try JSON first.
func Decode(data []byte, source string) (any, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("filesource: file %s is empty", source)
	}

	var payload any
	switch strings.ToLower(filepath.Ext(source)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("filesource: parse %s: %w", source, err)
		}
	default:
		if err := json.Unmarshal(data, &payload); err == nil {
			return payload, nil
		}
		if err := yaml.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("filesource: parse %s: invalid JSON or YAML", source)
		}
	}
	return payload, nil
}

func isDataFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
