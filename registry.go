package hal

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/pthm/hal/lib/reldoc"
)

// NamespaceOptions describes a namespace to add to a Registry.
type NamespaceOptions struct {
	Name        string // defaults to the base name of Dir
	Prefix      string // defaults to Name
	Description string
	Dir         string // optional directory of rel documents
	Rels        []RelOptions
}

// Registry is a catalog of namespaces and their rels. It is safe for
// concurrent use; after startup it is almost exclusively read.
type Registry struct {
	mu       sync.RWMutex
	byName   map[string]*Namespace
	byPrefix map[string]*Namespace
	logger   *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the logger used for lazy rel creation and
// directory loading.
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(reg *Registry) {
		reg.logger = logger
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	reg := &Registry{
		byName:   make(map[string]*Namespace),
		byPrefix: make(map[string]*Namespace),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(reg)
	}
	return reg
}

// AddNamespace validates and registers a namespace. When opts.Dir is set,
// one rel is registered per rel document found in it. Names and prefixes
// must be unique across the registry.
func (reg *Registry) AddNamespace(opts NamespaceOptions) (*Namespace, error) {
	name := opts.Name
	if name == "" && opts.Dir != "" {
		name = filepath.Base(filepath.Clean(opts.Dir))
	}
	if name == "" {
		return nil, configErrorf("namespace", "name is required")
	}
	if !identRe.MatchString(name) {
		return nil, configErrorf("namespace "+name, "invalid name")
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = name
	}
	if !identRe.MatchString(prefix) {
		return nil, configErrorf("namespace "+name, "invalid prefix %q", prefix)
	}

	ns := &Namespace{
		Name:        name,
		Prefix:      prefix,
		Description: opts.Description,
		Dir:         opts.Dir,
		rels:        make(map[string]*Rel),
	}

	if opts.Dir != "" {
		descs, err := reldoc.Load(opts.Dir)
		if err != nil {
			return nil, fmt.Errorf("hal: namespace %s: %w", name, err)
		}
		for _, d := range descs {
			if _, err := ns.AddRel(RelOptions{Name: d.Name, File: d.File, Description: d.Description}); err != nil {
				return nil, err
			}
		}
		reg.logger.Debug("loaded rel documents", "namespace", name, "dir", opts.Dir, "count", len(descs))
	}
	for _, r := range opts.Rels {
		if _, err := ns.AddRel(r); err != nil {
			return nil, err
		}
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	if _, exists := reg.byName[name]; exists {
		return nil, configErrorf("namespace "+name, "name already registered")
	}
	if _, exists := reg.byPrefix[prefix]; exists {
		return nil, configErrorf("namespace "+name, "prefix %q already registered", prefix)
	}
	reg.byName[name] = ns
	reg.byPrefix[prefix] = ns
	return ns, nil
}

// MustAddNamespace is like AddNamespace but panics on error. Use it in
// program initialization.
func (reg *Registry) MustAddNamespace(opts NamespaceOptions) *Namespace {
	ns, err := reg.AddNamespace(opts)
	if err != nil {
		panic(err)
	}
	return ns
}

// RemoveNamespace removes the named namespace. An empty name clears the
// whole registry; that is meant for test isolation, not for servers.
func (reg *Registry) RemoveNamespace(name string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if name == "" {
		reg.byName = make(map[string]*Namespace)
		reg.byPrefix = make(map[string]*Namespace)
		return
	}
	if ns, ok := reg.byName[name]; ok {
		delete(reg.byName, name)
		delete(reg.byPrefix, ns.Prefix)
	}
}

// FindNamespace returns the namespace registered under name.
func (reg *Registry) FindNamespace(name string) (*Namespace, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	ns, ok := reg.byName[name]
	return ns, ok
}

// NamespaceByPrefix returns the namespace using prefix.
func (reg *Registry) NamespaceByPrefix(prefix string) (*Namespace, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	ns, ok := reg.byPrefix[prefix]
	return ns, ok
}

// Namespaces returns all namespaces ordered by name.
func (reg *Registry) Namespaces() []*Namespace {
	reg.mu.RLock()
	out := make([]*Namespace, 0, len(reg.byName))
	for _, ns := range reg.byName {
		out = append(out, ns)
	}
	reg.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Rels returns the rels of every namespace ordered by name, then by
// qualified name.
func (reg *Registry) Rels() []*Rel {
	var rels []*Rel
	for _, ns := range reg.Namespaces() {
		rels = append(rels, ns.Rels()...)
	}
	sort.SliceStable(rels, func(i, j int) bool {
		if rels[i].Name != rels[j].Name {
			return rels[i].Name < rels[j].Name
		}
		return rels[i].QName() < rels[j].QName()
	})
	return rels
}

// ResolveRel resolves a rel name that may be qualified ("mco:boss"). The
// part before the colon is matched against prefixes first, then names.
// Names that match no namespace are returned as transient global rels.
//
// When the namespace exists but lacks the rel, strict mode fails with an
// UnknownRelError and non-strict mode registers the rel on the spot.
func (reg *Registry) ResolveRel(qname string, strict bool) (*Rel, error) {
	if qname == "" {
		return nil, configErrorf("rel", "name is required")
	}
	prefix, name, ok := strings.Cut(qname, ":")
	if !ok || prefix == "" || name == "" {
		return &Rel{Name: qname}, nil
	}

	ns, found := reg.NamespaceByPrefix(prefix)
	if !found {
		ns, found = reg.FindNamespace(prefix)
	}
	if !found {
		return &Rel{Name: qname}, nil
	}
	return reg.resolveIn(ns, name, strict)
}

// ResolveRelIn resolves name inside the namespace called namespace (or
// using it as a prefix). See ResolveRel for the strict and lazy rules.
func (reg *Registry) ResolveRelIn(namespace, name string, strict bool) (*Rel, error) {
	if name == "" {
		return nil, configErrorf("rel", "name is required")
	}
	ns, found := reg.FindNamespace(namespace)
	if !found {
		ns, found = reg.NamespaceByPrefix(namespace)
	}
	if !found {
		return &Rel{Name: name}, nil
	}
	return reg.resolveIn(ns, name, strict)
}

func (reg *Registry) resolveIn(ns *Namespace, name string, strict bool) (*Rel, error) {
	if rel, ok := ns.Rel(name); ok {
		return rel, nil
	}
	if strict {
		return nil, &UnknownRelError{Namespace: ns.Name, Rel: name}
	}
	rel, err := ns.AddRel(RelOptions{Name: name})
	if err != nil {
		return nil, err
	}
	reg.logger.Debug("registered rel on first use", "namespace", ns.Name, "rel", name)
	return rel, nil
}

// The process-wide registry used by the package-level functions and by
// factories created without WithRegistry.
var defaultRegistry atomic.Pointer[Registry]

func init() {
	defaultRegistry.Store(NewRegistry())
}

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry {
	return defaultRegistry.Load()
}

// SetDefault replaces the process-wide registry. Nil is ignored.
func SetDefault(reg *Registry) {
	if reg == nil {
		return
	}
	defaultRegistry.Store(reg)
}

// AddNamespace adds a namespace to the process-wide registry.
func AddNamespace(opts NamespaceOptions) (*Namespace, error) {
	return DefaultRegistry().AddNamespace(opts)
}

// RemoveNamespace removes a namespace from the process-wide registry, or
// clears it when name is empty.
func RemoveNamespace(name string) {
	DefaultRegistry().RemoveNamespace(name)
}

// FindNamespace looks up a namespace in the process-wide registry.
func FindNamespace(name string) (*Namespace, bool) {
	return DefaultRegistry().FindNamespace(name)
}

// Namespaces lists the process-wide registry's namespaces by name.
func Namespaces() []*Namespace {
	return DefaultRegistry().Namespaces()
}

// Rels lists every rel in the process-wide registry by name.
func Rels() []*Rel {
	return DefaultRegistry().Rels()
}

// ResolveRel resolves a possibly qualified rel in the process-wide registry.
func ResolveRel(qname string, strict bool) (*Rel, error) {
	return DefaultRegistry().ResolveRel(qname, strict)
}

// ResolveRelIn resolves a rel of a namespace in the process-wide registry.
func ResolveRelIn(namespace, name string, strict bool) (*Rel, error) {
	return DefaultRegistry().ResolveRelIn(namespace, name, strict)
}
