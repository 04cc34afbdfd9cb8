package optionsapi

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-selectkit/pkg/record"
	"github.com/goliatone/go-selectkit/pkg/sources/httpsource"
)

// SourceEndpoint returns an httpsource.Endpoint that reads the options served
// by a component mounted at baseURL+basePath, so one controller can be fed
// from another process's component. The default limit is sent explicitly.
func SourceEndpoint(baseURL, basePath string, fns ...OptionFn) httpsource.Endpoint {
	opts := NewOptions(fns...)
	url := strings.TrimRight(strings.TrimSpace(baseURL), "/") + mountPath(basePath, opts.RoutePath)

	return httpsource.Endpoint{
		URL:         url,
		Method:      "GET",
		ResultsPath: "data",
		Params: map[string]string{
			opts.LimitParam: strconv.Itoa(opts.DefaultLimit),
		},
	}
}

// SourceMapping maps the component's option payload back into options.
func SourceMapping() record.Mapping {
	return record.Mapping{
		Value:    "value",
		Label:    "label",
		Disabled: "disabled",
	}
}
