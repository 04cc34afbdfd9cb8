// Package httpsource fetches option records from a JSON HTTP endpoint. It is
// the network-backed Service for selectsingle controllers built on
// record.Record.
package httpsource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-selectkit/pkg/record"
	"github.com/goliatone/go-selectkit/pkg/selectsingle"
)

// Endpoint describes where records come from. Params are sent as query
// parameters for GET, HEAD and DELETE and as a JSON object body otherwise.
// Params whose name matches a {placeholder} in URL are substituted into the
// path instead.
type Endpoint struct {
	URL         string            `json:"url" yaml:"url"`
	Method      string            `json:"method,omitempty" yaml:"method"`
	ResultsPath string            `json:"resultsPath,omitempty" yaml:"resultsPath"`
	Params      map[string]string `json:"params,omitempty" yaml:"params"`
	Headers     map[string]string `json:"headers,omitempty" yaml:"headers"`
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Code int
	URL  string
}

func (e StatusError) Error() string {
	return fmt.Sprintf("httpsource: unexpected status %d from %s", e.Code, e.URL)
}

// StatusCode returns the HTTP status code.
func (e StatusError) StatusCode() int { return e.Code }

// Option configures a Source.
type Option func(*Source)

// WithHTTPClient overrides http.DefaultClient.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Source) {
		if client != nil {
			s.client = client
		}
	}
}

// WithTimeout bounds each fetch.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Source) {
		s.timeout = timeout
	}
}

// Source is a selectsingle.Service backed by an HTTP endpoint.
type Source struct {
	endpoint Endpoint
	client   *http.Client
	timeout  time.Duration
}

var _ selectsingle.Service[record.Record] = (*Source)(nil)

// New builds a Source for endpoint.
func New(endpoint Endpoint, options ...Option) *Source {
	s := &Source{
		endpoint: normalizeEndpoint(endpoint),
		client:   http.DefaultClient,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

// Endpoint returns the normalized endpoint.
func (s *Source) Endpoint() Endpoint {
	return s.endpoint
}

// Fetch performs the request and extracts records at the results path.
func (s *Source) Fetch(ctx context.Context) ([]record.Record, error) {
	if s.endpoint.URL == "" {
		return nil, fmt.Errorf("httpsource: endpoint url is required")
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	req, err := s.newRequest(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpsource: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, StatusError{Code: resp.StatusCode, URL: req.URL.String()}
	}

	var payload any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("httpsource: decode: %w", err)
	}
	return record.ExtractResults(payload, s.endpoint.ResultsPath), nil
}

func (s *Source) newRequest(ctx context.Context) (*http.Request, error) {
	rawURL, rest := expandPath(s.endpoint.URL, s.endpoint.Params)
	reqURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("httpsource: parse url: %w", err)
	}

	var body io.Reader
	switch s.endpoint.Method {
	case http.MethodGet, http.MethodHead, http.MethodDelete:
		q := reqURL.Query()
		for k, v := range rest {
			q.Set(k, v)
		}
		reqURL.RawQuery = q.Encode()
	default:
		payload, err := json.Marshal(rest)
		if err != nil {
			return nil, fmt.Errorf("httpsource: encode body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, s.endpoint.Method, reqURL.String(), body)
	if err != nil {
		return nil, fmt.Errorf("httpsource: request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range s.endpoint.Headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

func normalizeEndpoint(e Endpoint) Endpoint {
	e.URL = strings.TrimSpace(e.URL)
	e.Method = strings.ToUpper(strings.TrimSpace(e.Method))
	if e.Method == "" {
		e.Method = http.MethodGet
	}
	e.ResultsPath = strings.TrimSpace(e.ResultsPath)
	params := make(map[string]string, len(e.Params))
	for k, v := range e.Params {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		params[k] = v
	}
	e.Params = params
	headers := make(map[string]string, len(e.Headers))
	for k, v := range e.Headers {
		headers[k] = v
	}
	e.Headers = headers
	return e
}

// expandPath substitutes {name} placeholders from params and returns the
// params that were not consumed.
func expandPath(raw string, params map[string]string) (string, map[string]string) {
	rest := make(map[string]string, len(params))
	for k, v := range params {
		placeholder := "{" + k + "}"
		if strings.Contains(raw, placeholder) {
			raw = strings.ReplaceAll(raw, placeholder, url.PathEscape(v))
			continue
		}
		rest[k] = v
	}
	return raw, rest
}
