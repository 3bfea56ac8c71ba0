package connector

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"

	e "github.com/kyma-incubator/trino-reconciler/pkg/error"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var defaultTemplates []byte

var (
	defaultRegistry    *Registry
	defaultRegistryErr error
	once               sync.Once
)

// Template describes a connector kind: its canonical name and the skeleton of its
// catalog properties. Templates are read-only after the registry was loaded.
type Template struct {
	Kind          Kind              `yaml:"kind" json:"kind"`
	DisplayName   string            `yaml:"displayName" json:"displayName"`
	CanonicalName string            `yaml:"canonicalName" json:"canonicalName"`
	Properties    map[string]string `yaml:"properties" json:"properties"`
	Required      []string          `yaml:"required" json:"required,omitempty"`
}

func (t *Template) clone() *Template {
	props := make(map[string]string, len(t.Properties))
	for k, v := range t.Properties {
		props[k] = v
	}
	return &Template{
		Kind:          t.Kind,
		DisplayName:   t.DisplayName,
		CanonicalName: t.CanonicalName,
		Properties:    props,
		Required:      append([]string(nil), t.Required...),
	}
}

type templateFile struct {
	Templates []*Template `yaml:"templates"`
}

type Registry struct {
	templates map[Kind]*Template
}

// DefaultRegistry returns the process-wide registry built from the embedded templates.
func DefaultRegistry() (*Registry, error) {
	once.Do(func() {
		defaultRegistry, defaultRegistryErr = NewRegistry(defaultTemplates)
	})
	return defaultRegistry, defaultRegistryErr
}

// NewRegistry parses a YAML template document and verifies that it covers every Kind exactly once.
func NewRegistry(data []byte) (*Registry, error) {
	var file templateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, "failed to parse connector templates")
	}

	registry := &Registry{templates: make(map[Kind]*Template, len(file.Templates))}
	for _, tpl := range file.Templates {
		kind, err := ParseKind(string(tpl.Kind))
		if err != nil {
			return nil, errors.Wrapf(err, "invalid connector template")
		}
		if kind != tpl.Kind {
			return nil, fmt.Errorf("connector template kind '%s' is not in canonical form '%s'", tpl.Kind, kind)
		}
		if _, exists := registry.templates[kind]; exists {
			return nil, fmt.Errorf("connector template '%s' is defined more than once", kind)
		}
		if tpl.CanonicalName == "" {
			return nil, fmt.Errorf("connector template '%s' has no canonical name", kind)
		}
		if tpl.DisplayName != "" {
			if displayKind, err := ParseKind(tpl.DisplayName); err != nil || displayKind != kind {
				return nil, fmt.Errorf("display name '%s' of connector template '%s' does not resolve to its kind",
					tpl.DisplayName, kind)
			}
		}
		for _, field := range tpl.Required {
			if _, ok := tpl.Properties[field]; !ok {
				return nil, fmt.Errorf("required field '%s' of connector template '%s' is missing in its properties",
					field, kind)
			}
		}
		registry.templates[kind] = tpl
	}

	for _, kind := range Kinds {
		if _, ok := registry.templates[kind]; !ok {
			return nil, fmt.Errorf("no connector template defined for kind '%s'", kind)
		}
	}
	return registry, nil
}

// Lookup returns a copy of the template registered for the kind.
func (r *Registry) Lookup(kind Kind) (*Template, error) {
	tpl, ok := r.templates[kind]
	if !ok {
		return nil, e.NewValidationError("connector kind '%s' is not supported", kind)
	}
	return tpl.clone(), nil
}

// Resolve parses a raw connector type and returns its template.
func (r *Registry) Resolve(rawKind string) (*Template, error) {
	kind, err := ParseKind(rawKind)
	if err != nil {
		return nil, err
	}
	return r.Lookup(kind)
}

// Templates returns copies of all templates ordered by kind.
func (r *Registry) Templates() []*Template {
	result := make([]*Template, 0, len(r.templates))
	for _, tpl := range r.templates {
		result = append(result, tpl.clone())
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Kind < result[j].Kind
	})
	return result
}
