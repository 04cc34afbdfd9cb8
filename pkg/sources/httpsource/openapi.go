package httpsource

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// ResultsPathExtension lets an OpenAPI operation declare where the records
// live in its response body.
const ResultsPathExtension = "x-selectkit-results-path"

// ErrMissingOperation is returned when the document has no operation with the
// requested id.
var ErrMissingOperation = errors.New("httpsource: operation not found")

// EndpointFromOpenAPI resolves the URL and method of operationID in an OpenAPI
// 3 document. The first server URL is used as base unless baseURL is given.
// Path templates such as /users/{orgId} are kept; Source substitutes them
// from Endpoint.Params.
func EndpointFromOpenAPI(ctx context.Context, data []byte, operationID, baseURL string) (Endpoint, error) {
	if err := ctx.Err(); err != nil {
		return Endpoint{}, err
	}
	operationID = strings.TrimSpace(operationID)
	if operationID == "" {
		return Endpoint{}, errors.New("httpsource: operation id is required")
	}

	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return Endpoint{}, fmt.Errorf("httpsource: load openapi document: %w", err)
	}

	if baseURL == "" && len(doc.Servers) > 0 && doc.Servers[0] != nil {
		baseURL = doc.Servers[0].URL
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")

	if doc.Paths == nil {
		return Endpoint{}, fmt.Errorf("%w: %s", ErrMissingOperation, operationID)
	}

	paths := doc.Paths.Map()
	keys := make([]string, 0, len(paths))
	for path := range paths {
		keys = append(keys, path)
	}
	sort.Strings(keys)

	for _, path := range keys {
		item := paths[path]
		if item == nil {
			continue
		}
		for method, op := range item.Operations() {
			if op == nil || op.OperationID != operationID {
				continue
			}
			endpoint := Endpoint{
				URL:    baseURL + path,
				Method: strings.ToUpper(method),
			}
			if raw, ok := op.Extensions[ResultsPathExtension]; ok {
				if s, ok := raw.(string); ok {
					endpoint.ResultsPath = s
				}
			}
			return normalizeEndpoint(endpoint), nil
		}
	}

	return Endpoint{}, fmt.Errorf("%w: %s", ErrMissingOperation, operationID)
}
