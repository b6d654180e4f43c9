package components

import (
	"bytes"
	"fmt"
	"html/template"
	"os"

	"github.com/dgallion1/actgen/internal/act"
	"golang.org/x/net/html"
	"gopkg.in/yaml.v3"
)

// Source is the raw form of a component set, as found in a YAML file.
type Source struct {
	Placeholder   string `yaml:"placeholder"`
	RenderingList string `yaml:"rendering_list"`
	Field         string `yaml:"field"`
}

// DefaultSource is used for any entry a Source leaves empty.
var DefaultSource = Source{
	Placeholder:   `<sc-placeholder name="{{.ID}}"></sc-placeholder>`,
	RenderingList: `<sc-renderings placeholder="{{.ID}}"></sc-renderings>`,
	Field:         `<sc-field name="{{.ID}}" type="{{.FieldType}}"></sc-field>`,
}

// Set holds the compiled wrapper templates. Each template runs with the
// *act.Node being extracted as its data.
type Set struct {
	placeholder   *template.Template
	renderingList *template.Template
	field         *template.Template
}

// Default returns the built-in component set.
func Default() *Set {
	s, err := Parse(DefaultSource)
	if err != nil {
		panic(fmt.Sprintf("default components: %v", err))
	}
	return s
}

// Parse compiles src, filling blanks from DefaultSource.
func Parse(src Source) (*Set, error) {
	if src.Placeholder == "" {
		src.Placeholder = DefaultSource.Placeholder
	}
	if src.RenderingList == "" {
		src.RenderingList = DefaultSource.RenderingList
	}
	if src.Field == "" {
		src.Field = DefaultSource.Field
	}

	var s Set
	var err error
	if s.placeholder, err = template.New("placeholder").Option("missingkey=error").Parse(src.Placeholder); err != nil {
		return nil, fmt.Errorf("parse placeholder template: %w", err)
	}
	if s.renderingList, err = template.New("rendering_list").Option("missingkey=error").Parse(src.RenderingList); err != nil {
		return nil, fmt.Errorf("parse rendering_list template: %w", err)
	}
	if s.field, err = template.New("field").Option("missingkey=error").Parse(src.Field); err != nil {
		return nil, fmt.Errorf("parse field template: %w", err)
	}
	return &s, nil
}

// Load reads a YAML component file.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read components file: %w", err)
	}
	var src Source
	if err := yaml.Unmarshal(data, &src); err != nil {
		return nil, fmt.Errorf("parse components file %s: %w", path, err)
	}
	return Parse(src)
}

// Templates adapts the set to the generator's callables.
func (s *Set) Templates() act.Templates[*html.Node] {
	return act.Templates[*html.Node]{
		Placeholder:   execute(s.placeholder),
		RenderingList: execute(s.renderingList),
		Field:         execute(s.field),
	}
}

func execute(t *template.Template) act.TemplateFunc[*html.Node] {
	return func(n *act.Node[*html.Node]) (string, error) {
		var buf bytes.Buffer
		if err := t.Execute(&buf, n); err != nil {
			return "", fmt.Errorf("execute %s template for %q: %w", t.Name(), n.ID, err)
		}
		return buf.String(), nil
	}
}
