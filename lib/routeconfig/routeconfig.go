// Package routeconfig loads namespaces and HAL route configs from YAML.
//
//	namespaces:
//	  - name: mycompany
//	    prefix: mco
//	    dir: rels/mycompany
//	routes:
//	  - id: person
//	    path: /people/{id}
//	    api: mco:person
//	    links:
//	      mco:company: /companies/{companyId}
//	      mco:search: {href: "/people{?q}", templated: true}
//	      mco:friends: [/people/1, /people/2]
//	    embedded:
//	      mco:boss:
//	        path: boss
//	        href: /people/{item.id}
//	    ignore: [password]
//
// A link is a string (literal href), a mapping (full link object) or a
// sequence (a rel that is always an array). Files are validated against an
// embedded JSON schema before they are decoded.
package routeconfig

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/pthm/hal"
)

//go:embed schema.json
var schemaJSON string

var schema = func() *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		panic(fmt.Sprintf("routeconfig: invalid embedded schema: %v", err))
	}
	return s
}()

// ValidationError lists the schema violations of a configuration file.
type ValidationError struct {
	File   string
	Errors []string
}

func (e *ValidationError) Error() string {
	where := "route config"
	if e.File != "" {
		where = e.File
	}
	return fmt.Sprintf("hal: invalid %s: %s", where, strings.Join(e.Errors, "; "))
}

// Unwrap makes validation errors configuration errors.
func (e *ValidationError) Unwrap() error {
	return hal.ErrInvalidConfig
}

// File is a decoded configuration file.
type File struct {
	Namespaces []Namespace `yaml:"namespaces"`
	Routes     []Route     `yaml:"routes"`

	// dir is the directory relative namespace dirs are resolved against.
	dir string
}

// Namespace mirrors hal.NamespaceOptions.
type Namespace struct {
	Name        string `yaml:"name"`
	Prefix      string `yaml:"prefix"`
	Description string `yaml:"description"`
	Dir         string `yaml:"dir"`
	Rels        []Rel  `yaml:"rels"`
}

// Rel mirrors hal.RelOptions.
type Rel struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	File        string `yaml:"file"`
}

// Route is one configured route.
type Route struct {
	ID       string `yaml:"id"`
	Method   string `yaml:"method"`
	Path     string `yaml:"path"`
	API      string `yaml:"api"`
	Resource `yaml:",inline"`
}

// Resource holds the representation settings shared by routes and
// embedded rels.
type Resource struct {
	Links    map[string]LinkValue `yaml:"links"`
	Embedded map[string]*Embed    `yaml:"embedded"`
	Ignore   StringList           `yaml:"ignore"`
	Query    string               `yaml:"query"`
}

// Embed is one embedded rel.
type Embed struct {
	Path     string    `yaml:"path"`
	Href     LinkValue `yaml:"href"`
	Resource `yaml:",inline"`
}

// Load reads and validates a configuration file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("hal: reading route config: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			verr.File = path
		}
		return nil, err
	}
	f.dir = filepath.Dir(path)
	return f, nil
}

// Parse validates and decodes configuration data. Relative namespace dirs
// are resolved against the working directory.
func Parse(data []byte) (*File, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("hal: parsing route config: %w", err)
	}
	if raw == nil {
		return &File{}, nil
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("hal: validating route config: %w", err)
	}
	if !result.Valid() {
		verr := &ValidationError{}
		for _, re := range result.Errors() {
			verr.Errors = append(verr.Errors, re.String())
		}
		return nil, verr
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("hal: decoding route config: %w", err)
	}
	return &f, nil
}

// Register adds the file's namespaces to reg.
func (f *File) Register(reg *hal.Registry) error {
	for _, ns := range f.Namespaces {
		if _, err := reg.AddNamespace(f.namespaceOptions(ns)); err != nil {
			return err
		}
	}
	return nil
}

func (f *File) namespaceOptions(ns Namespace) hal.NamespaceOptions {
	opts := hal.NamespaceOptions{
		Name:        ns.Name,
		Prefix:      ns.Prefix,
		Description: ns.Description,
		Dir:         f.resolve(ns.Dir),
	}
	for _, r := range ns.Rels {
		opts.Rels = append(opts.Rels, hal.RelOptions{
			Name:        r.Name,
			Description: r.Description,
			File:        f.resolve(r.File),
		})
	}
	return opts
}

func (f *File) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || f.dir == "" {
		return path
	}
	return filepath.Join(f.dir, path)
}

// RouteTable builds a route table from the file's routes.
func (f *File) RouteTable() (*hal.RouteTable, error) {
	routes := make([]hal.Route, 0, len(f.Routes))
	for _, r := range f.Routes {
		routes = append(routes, hal.Route{
			ID:     r.ID,
			Method: r.Method,
			Path:   r.Path,
			Config: r.Config(),
		})
	}
	return hal.NewRouteTable(routes...)
}

// Config converts the route to a hal.Config.
func (r Route) Config() *hal.Config {
	cfg := r.Resource.config()
	cfg.Name = r.ID
	cfg.API = r.API
	return cfg
}

func (res Resource) config() *hal.Config {
	cfg := &hal.Config{
		Ignore: []string(res.Ignore),
		Query:  res.Query,
	}
	if len(res.Links) > 0 {
		cfg.Links = make(map[string]hal.LinkDescriptor, len(res.Links))
		for rel, l := range res.Links {
			cfg.Links[rel] = l.Descriptor()
		}
	}
	if len(res.Embedded) > 0 {
		cfg.Embedded = make(map[string]*hal.EmbedConfig, len(res.Embedded))
		for rel, e := range res.Embedded {
			if e == nil {
				cfg.Embedded[rel] = nil
				continue
			}
			cfg.Embedded[rel] = &hal.EmbedConfig{
				Path:   e.Path,
				Href:   e.Href.Descriptor(),
				Config: *e.Resource.config(),
			}
		}
	}
	return cfg
}
