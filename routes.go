package hal

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/yosida95/uritemplate/v3"
)

// RouteLookup finds the path template of a named route. Routers of any
// HTTP framework can implement it; RouteTable is the built-in one.
type RouteLookup interface {
	LookupRouteByID(id string) (string, bool)
}

// Route is a HAL-producing endpoint. Path is an RFC 6570 template such as
// "/people/{id}".
type Route struct {
	ID     string
	Method string
	Path   string
	Config *Config
}

// name returns the route ID, falling back to the config's name.
func (r *Route) name() string {
	if r.ID != "" {
		return r.ID
	}
	if r.Config != nil {
		return r.Config.Name
	}
	return ""
}

// RouteTable is a RouteLookup over a fixed set of routes. It keeps the
// order routes were added in, which is also the link order of the API
// root document.
type RouteTable struct {
	mu     sync.RWMutex
	routes []*Route
	byID   map[string]*Route
}

// NewRouteTable creates a route table holding routes.
func NewRouteTable(routes ...Route) (*RouteTable, error) {
	t := &RouteTable{byID: make(map[string]*Route)}
	for _, r := range routes {
		if err := t.Add(r); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Add registers a route. Path is required and named routes must be
// unique.
func (t *RouteTable) Add(r Route) error {
	if r.Path == "" {
		return configErrorf("route "+r.name(), "path is required")
	}
	if r.Method == "" {
		r.Method = "GET"
	}
	if r.ID == "" && r.Config != nil {
		r.ID = r.Config.Name
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if r.ID != "" {
		if _, exists := t.byID[r.ID]; exists {
			return configErrorf("route "+r.ID, "already registered")
		}
		t.byID[r.ID] = &r
	}
	t.routes = append(t.routes, &r)
	return nil
}

// Route returns the route registered under id.
func (t *RouteTable) Route(id string) (*Route, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.byID[id]
	return r, ok
}

// Routes returns every route in the order it was added.
func (t *RouteTable) Routes() []*Route {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]*Route(nil), t.routes...)
}

// APIRoutes returns the routes whose config names an API rel.
func (t *RouteTable) APIRoutes() []*Route {
	var out []*Route
	for _, r := range t.Routes() {
		if r.Config != nil && r.Config.API != "" {
			out = append(out, r)
		}
	}
	return out
}

// LookupRouteByID implements RouteLookup.
func (t *RouteTable) LookupRouteByID(id string) (string, bool) {
	r, ok := t.Route(id)
	if !ok {
		return "", false
	}
	return r.Path, true
}

// Router builds URLs for named routes. Parsed path templates are cached.
type Router struct {
	lookup    RouteLookup
	templates *cache.Cache
	logger    *slog.Logger
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithTemplateCacheTTL sets how long a parsed route template is kept. Zero
// keeps templates forever, which suits route tables that never change.
func WithTemplateCacheTTL(ttl time.Duration) RouterOption {
	return func(r *Router) {
		if ttl <= 0 {
			r.templates = cache.New(cache.NoExpiration, 0)
			return
		}
		r.templates = cache.New(ttl, 2*ttl)
	}
}

// WithRouterLogger sets the router's logger.
func WithRouterLogger(logger *slog.Logger) RouterOption {
	return func(r *Router) {
		r.logger = logger
	}
}

// NewRouter creates a router resolving route IDs with lookup.
func NewRouter(lookup RouteLookup, opts ...RouterOption) *Router {
	r := &Router{lookup: lookup, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	if r.templates == nil {
		r.templates = cache.New(cache.NoExpiration, 0)
	}
	return r
}

// Path expands the path template of route id with params, which may be a
// map, a struct or any value dotted template variables can walk.
func (r *Router) Path(id string, params any) (string, error) {
	tmpl, err := r.template(id)
	if err != nil {
		return "", err
	}
	return expandTemplate(tmpl, params)
}

// Href returns a computed href linking to route id, expanded against the
// entity of the representation declaring the link.
func (r *Router) Href(id string) HrefFunc {
	return func(_ *Representation, entity any) (string, error) {
		return r.Path(id, entity)
	}
}

func (r *Router) template(id string) (*uritemplate.Template, error) {
	path, ok := r.lookup.LookupRouteByID(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRouteNotFound, id)
	}
	if v, ok := r.templates.Get(path); ok {
		return v.(*uritemplate.Template), nil
	}

	tmpl, err := compileTemplate(path)
	if err != nil {
		return nil, fmt.Errorf("route %s: %w", id, err)
	}
	r.templates.Set(path, tmpl, cache.DefaultExpiration)
	r.logger.Debug("compiled route template", "route", id, "path", path)
	return tmpl, nil
}

// isTemplate reports whether path contains template expressions.
func isTemplate(path string) bool {
	return strings.Contains(path, "{")
}
