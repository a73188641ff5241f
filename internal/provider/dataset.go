// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"text/template"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/search-aggregator/pkg/types"
)

// Formatter maps one raw backend hit to a canonical result. Implementations
// must be pure and must not fail on missing source fields.
type Formatter interface {
	FormatHit(hit types.Hit) types.Result
}

// FieldMapping is a declarative Formatter: each field names the source
// field that backs the canonical field. The result ID is always the hit id.
type FieldMapping struct {
	Name   string `yaml:"name"`
	Source string `yaml:"source"`
	Text   string `yaml:"text"`
	URL    string `yaml:"url,omitempty"`
}

// FormatHit implements Formatter.
func (m FieldMapping) FormatHit(hit types.Hit) types.Result {
	return types.Result{
		ID:     hit.ID,
		Name:   sourceString(hit.Source, m.Name),
		Source: sourceString(hit.Source, m.Source),
		Text:   sourceString(hit.Source, m.Text),
		URL:    sourceString(hit.Source, m.URL),
	}
}

// sourceString reads a scalar source field as a string. Missing, null and
// structured values yield "".
func sourceString(src map[string]any, key string) string {
	if key == "" || src == nil {
		return ""
	}
	switch v := src[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case bool, int, int64:
		return fmt.Sprint(v)
	default:
		return ""
	}
}

// Dataset is one indexed corpus plus the rules for querying and formatting it.
type Dataset struct {
	Name       string
	Index      string
	QueryField string
	Formatter  Formatter

	// queryTemplate, when set, renders the full request body instead of the
	// default single-field match query.
	queryTemplate *template.Template
}

// Custom reports whether the dataset uses a custom query body.
func (d Dataset) Custom() bool { return d.queryTemplate != nil }

// QueryBody builds the Elasticsearch request body for query. Pagination
// travels in the URL, not in the body.
func (d Dataset) QueryBody(query string) ([]byte, error) {
	if d.Custom() {
		var buf bytes.Buffer
		if err := d.queryTemplate.Execute(&buf, struct{ Query string }{query}); err != nil {
			return nil, fmt.Errorf("rendering query template for %s: %w", d.Name, err)
		}
		if !json.Valid(buf.Bytes()) {
			return nil, fmt.Errorf("query template for %s produced invalid JSON", d.Name)
		}
		return buf.Bytes(), nil
	}
	return json.Marshal(map[string]any{
		"query": map[string]any{
			"match": map[string]any{d.QueryField: query},
		},
	})
}

// Built-in datasets.
var (
	SearchResultsAnnotated = Dataset{
		Name:       "search_results_annotated",
		Index:      "search_results_annotated",
		QueryField: "topic",
		Formatter:  FieldMapping{Name: "topic", Source: "title", Text: "snippet", URL: "url"},
	}

	TweetsAnnotated = Dataset{
		Name:       "tweets_annotated",
		Index:      "tweets_annotated",
		QueryField: "topic",
		Formatter:  FieldMapping{Name: "topic", Source: "tweet", Text: "crowd_logics", URL: "url"},
	}
)

// DatasetSpec is the YAML form of a dataset definition.
type DatasetSpec struct {
	Name          string       `yaml:"name"`
	Index         string       `yaml:"index"`
	QueryField    string       `yaml:"query_field"`
	QueryTemplate string       `yaml:"query_template,omitempty"`
	Fields        FieldMapping `yaml:"fields"`
}

// DatasetsFile is the on-disk list of dataset definitions.
type DatasetsFile struct {
	Datasets []DatasetSpec `yaml:"datasets"`
}

var templateFuncs = template.FuncMap{
	"json": func(v any) (string, error) {
		b, err := json.Marshal(v)
		return string(b), err
	},
}

// Compile validates the spec and turns it into a Dataset.
func (s DatasetSpec) Compile() (Dataset, error) {
	if s.Name == "" {
		return Dataset{}, fmt.Errorf("dataset with empty name")
	}
	index := s.Index
	if index == "" {
		index = s.Name
	}
	d := Dataset{
		Name:       s.Name,
		Index:      index,
		QueryField: s.QueryField,
		Formatter:  s.Fields,
	}
	if s.QueryTemplate != "" {
		tmpl, err := template.New(s.Name).Funcs(templateFuncs).Parse(s.QueryTemplate)
		if err != nil {
			return Dataset{}, fmt.Errorf("parsing query template for %s: %w", s.Name, err)
		}
		d.queryTemplate = tmpl
	} else if s.QueryField == "" {
		return Dataset{}, fmt.Errorf("dataset %s needs query_field or query_template", s.Name)
	}
	return d, nil
}

// ReadDatasetsFile loads dataset definitions from a YAML file.
func ReadDatasetsFile(path string) ([]Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading datasets file: %w", err)
	}
	var f DatasetsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing datasets file: %w", err)
	}
	out := make([]Dataset, 0, len(f.Datasets))
	for _, spec := range f.Datasets {
		d, err := spec.Compile()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// Catalog indexes datasets by name. Later entries replace earlier ones with
// the same name, so file definitions override the built-ins.
func Catalog(datasets ...Dataset) map[string]Dataset {
	c := make(map[string]Dataset, len(datasets))
	for _, d := range datasets {
		c[d.Name] = d
	}
	return c
}

// DefaultVerticals is the vertical mapping used when none is configured.
var DefaultVerticals = map[string]string{"text": SearchResultsAnnotated.Name}

// BindVerticals resolves a vertical→dataset-name mapping against a catalog.
// Every vertical must resolve to exactly one dataset.
func BindVerticals(catalog map[string]Dataset, verticals map[string]string) (map[string]Dataset, error) {
	if len(verticals) == 0 {
		verticals = DefaultVerticals
	}
	bound := make(map[string]Dataset, len(verticals))
	for vertical, name := range verticals {
		d, ok := catalog[name]
		if !ok {
			known := make([]string, 0, len(catalog))
			for n := range catalog {
				known = append(known, n)
			}
			sort.Strings(known)
			return nil, fmt.Errorf("vertical %q: unknown dataset %q (known: %v)", vertical, name, known)
		}
		if d.Formatter == nil {
			return nil, fmt.Errorf("vertical %q: dataset %q has no formatter", vertical, name)
		}
		bound[vertical] = d
	}
	return bound, nil
}
