// Package promql renders range queries from configured templates.
package promql

import (
	"errors"
	"fmt"
	"strings"
	"text/template"
)

// DefaultQueryKey names the template used when a metric kind has no key of
// its own. It must always be configured.
const DefaultQueryKey = "default"

var (
	ErrUnknownTemplate = errors.New("promql_template_unknown")
	ErrMissingDefault  = errors.New("promql_default_template_missing")
)

// Descriptor is the data a template is executed against.
type Descriptor struct {
	QueryKey   string
	AccountID  string
	MetricKind string
	// Params are configured values that may themselves contain template
	// actions.
	Params map[string]string
}

// Builder expands templates. Output of one pass is parsed again as a
// template, up to Depth passes, so parameters can reference each other.
type Builder struct {
	templates map[string]string
	depth     int
}

func NewBuilder(templates map[string]string, depth int) (*Builder, error) {
	if strings.TrimSpace(templates[DefaultQueryKey]) == "" {
		return nil, ErrMissingDefault
	}
	if depth <= 0 {
		depth = 1
	}
	copied := make(map[string]string, len(templates))
	for k, v := range templates {
		copied[k] = v
	}
	return &Builder{templates: copied, depth: depth}, nil
}

// Build returns the query for d. An empty QueryKey selects the default
// template.
func (b *Builder) Build(d Descriptor) (string, error) {
	key := strings.TrimSpace(d.QueryKey)
	if key == "" {
		key = DefaultQueryKey
	}
	query, ok := b.templates[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTemplate, key)
	}

	for i := 0; i < b.depth; i++ {
		if !strings.Contains(query, "{{") {
			break
		}
		tmpl, err := template.New(key).Option("missingkey=error").Parse(query)
		if err != nil {
			return "", fmt.Errorf("parse template %s: %w", key, err)
		}
		var out strings.Builder
		if err := tmpl.Execute(&out, d); err != nil {
			return "", fmt.Errorf("execute template %s: %w", key, err)
		}
		query = out.String()
	}
	return query, nil
}

func (b *Builder) Depth() int { return b.depth }
