// Package config loads the selectkit CLI configuration: which source feeds
// the controller, how records map to options and how the select is
// presented.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-selectkit/pkg/record"
	"github.com/goliatone/go-selectkit/pkg/selectsingle"
)

// Source kinds.
const (
	KindHTTP   = "http"
	KindFile   = "file"
	KindSQLite = "sqlite"
	KindMongo  = "mongo"
)

// ErrUnknownKind is returned for a source kind outside the supported set.
var ErrUnknownKind = errors.New("config: unknown source kind")

type Config struct {
	Source      Source                   `yaml:"source"`
	Mapping     record.Mapping           `yaml:"mapping"`
	Value       *string                  `yaml:"value"`
	Default     []record.Record          `yaml:"default"`
	Additional  []record.Record          `yaml:"additional"`
	WarningText string                   `yaml:"warningText"`
	LoadingText string                   `yaml:"loadingText"`
	FetchPolicy selectsingle.FetchPolicy `yaml:"fetchPolicy"`
	Props       *selectsingle.Props      `yaml:"props"`
	Server      Server                   `yaml:"server"`
	Theme       Theme                    `yaml:"theme"`
}

type Source struct {
	Kind   string       `yaml:"kind"`
	HTTP   HTTPSource   `yaml:"http"`
	File   FileSource   `yaml:"file"`
	SQLite SQLiteSource `yaml:"sqlite"`
	Mongo  MongoSource  `yaml:"mongo"`
}

type HTTPSource struct {
	URL         string            `yaml:"url"`
	Method      string            `yaml:"method"`
	ResultsPath string            `yaml:"resultsPath"`
	Params      map[string]string `yaml:"params"`
	Headers     map[string]string `yaml:"headers"`
	Timeout     time.Duration     `yaml:"timeout"`
	OpenAPI     *OpenAPIRef       `yaml:"openapi"`
}

// OpenAPIRef resolves the endpoint from an OpenAPI document instead of a
// literal URL. Document is a file path or an http(s) URL.
type OpenAPIRef struct {
	Document    string `yaml:"document"`
	OperationID string `yaml:"operationId"`
	Server      string `yaml:"server"`
}

type FileSource struct {
	Dir         string `yaml:"dir"`
	Pattern     string `yaml:"pattern"`
	ResultsPath string `yaml:"resultsPath"`
}

type SQLiteSource struct {
	DSN   string `yaml:"dsn"`
	Query string `yaml:"query"`
	Args  []any  `yaml:"args"`
}

type MongoSource struct {
	URI        string         `yaml:"uri"`
	Database   string         `yaml:"database"`
	Collection string         `yaml:"collection"`
	Filter     map[string]any `yaml:"filter"`
	Sort       []string       `yaml:"sort"`
	Limit      int64          `yaml:"limit"`
	Fields     []string       `yaml:"fields"`
	Timeout    time.Duration  `yaml:"timeout"`
}

type Server struct {
	Addr      string `yaml:"addr"`
	BasePath  string `yaml:"basePath"`
	RoutePath string `yaml:"routePath"`
}

type Theme struct {
	Name     string            `yaml:"name"`
	Variant  string            `yaml:"variant"`
	CSSVars  map[string]string `yaml:"cssVars"`
	AssetURL string            `yaml:"assetURL"`
}

// LoadEnv loads .env files into the process environment. Missing files are
// ignored so the CLI works without one.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("config: load env: %w", err)
	}
	return nil
}

// Load reads the YAML file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse expands ${VAR} references against the environment, decodes the YAML
// and applies defaults.
func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	c.Source.Kind = strings.ToLower(strings.TrimSpace(c.Source.Kind))
	if c.Source.Kind == "" {
		c.Source.Kind = KindHTTP
	}
	if c.Source.File.Pattern == "" {
		c.Source.File.Pattern = "*"
	}
	if c.Source.File.Dir == "" {
		c.Source.File.Dir = "."
	}
	if c.FetchPolicy == "" {
		c.FetchPolicy = selectsingle.FetchPolicyLastResolved
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
}

// Validate reports the first missing setting for the selected source kind.
func (c Config) Validate() error {
	switch c.Source.Kind {
	case KindHTTP:
		h := c.Source.HTTP
		if h.OpenAPI != nil {
			if h.OpenAPI.Document == "" || h.OpenAPI.OperationID == "" {
				return errors.New("config: source.http.openapi needs document and operationId")
			}
		} else if h.URL == "" {
			return errors.New("config: source.http.url is required")
		}
	case KindFile:
	case KindSQLite:
		if c.Source.SQLite.DSN == "" || c.Source.SQLite.Query == "" {
			return errors.New("config: source.sqlite needs dsn and query")
		}
	case KindMongo:
		m := c.Source.Mongo
		if m.URI == "" || m.Database == "" || m.Collection == "" {
			return errors.New("config: source.mongo needs uri, database and collection")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, c.Source.Kind)
	}

	switch c.FetchPolicy {
	case selectsingle.FetchPolicyLastResolved, selectsingle.FetchPolicyLatestDispatch:
	default:
		return fmt.Errorf("config: unknown fetchPolicy %q", c.FetchPolicy)
	}
	return nil
}

// ControllerOptions translates the presentation settings into controller
// options. Warning and loading templates receive the value through %v.
func (c Config) ControllerOptions() []selectsingle.OptionFn[record.Record, string] {
	fns := []selectsingle.OptionFn[record.Record, string]{
		selectsingle.WithFetchPolicy[record.Record, string](c.FetchPolicy),
	}
	if c.Value != nil {
		fns = append(fns, selectsingle.WithValue[record.Record](*c.Value))
	}
	if len(c.Default) > 0 {
		fns = append(fns, selectsingle.WithDefaultModels[record.Record, string](c.Default...))
	}
	if len(c.Additional) > 0 {
		fns = append(fns, selectsingle.WithAdditionalModels[record.Record, string](c.Additional...))
	}
	if c.WarningText != "" {
		format := c.WarningText
		fns = append(fns, selectsingle.WithWarningText[record.Record, string](func(value string) string {
			return formatText(format, value)
		}))
	}
	if c.LoadingText != "" {
		format := c.LoadingText
		fns = append(fns, selectsingle.WithLoadingText[record.Record, string](func(value *string) string {
			if value == nil {
				return formatText(format, "")
			}
			return formatText(format, *value)
		}))
	}
	if c.Props != nil {
		fns = append(fns, selectsingle.WithProps[record.Record, string](*c.Props))
	}
	return fns
}

func formatText(format, value string) string {
	if !strings.Contains(format, "%") {
		return format
	}
	return strings.TrimSpace(fmt.Sprintf(format, value))
}
