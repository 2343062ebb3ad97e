package hal

import (
	"context"
	"sort"
)

// Config declares how a route's response entity becomes a HAL document.
// The engine only reads it; a Config may be shared by concurrent requests.
type Config struct {
	// Links maps rel names to link descriptors. Hrefs are expanded against
	// the entity; HrefFunc descriptors receive the entity as is.
	Links map[string]LinkDescriptor

	// Embedded maps rel names to entity paths that become embedded
	// representations.
	Embedded map[string]*EmbedConfig

	// Ignore lists entity properties (or dotted paths) left out of the
	// output.
	Ignore []string

	// Prepare runs after the entity's own ToHal hook.
	Prepare PrepareFunc

	// Query is a URI template suffix such as "{?q,limit}" appended to every
	// declared link, which is then marked templated.
	Query string

	// API, when set, is the rel under which the route is linked from the
	// API root document.
	API string

	// Name identifies the route for named-route linking.
	Name string
}

// EmbedConfig declares one embedded rel. Path is a dotted path into the
// parent entity; Href is the self link of each embedded item, expanded
// against an EmbedScope. The embedded Config applies to every item.
type EmbedConfig struct {
	Path string
	Href LinkDescriptor
	Config
}

// PrepareFunc customizes a representation after links and embedded
// resources are in place. Returning a nil representation keeps rep (which
// the function may have mutated); a non-nil one replaces it.
type PrepareFunc func(ctx context.Context, rep *Representation) (*Representation, error)

// Representer is implemented by entities that customize their own
// representation. ToHal follows the PrepareFunc contract and runs before
// the route's Prepare.
type Representer interface {
	ToHal(ctx context.Context, rep *Representation) (*Representation, error)
}

// Prepare wraps a bare callback into a Config.
func Prepare(fn PrepareFunc) *Config {
	return &Config{Prepare: fn}
}

func validateConfig(cfg *Config) error {
	if cfg == nil {
		return nil
	}
	for _, rel := range sortedKeys(cfg.Links) {
		if cfg.Links[rel] == nil {
			return configErrorf("link "+rel, "descriptor is nil")
		}
	}
	for _, rel := range sortedKeys(cfg.Embedded) {
		ec := cfg.Embedded[rel]
		if ec == nil {
			return configErrorf("embedded "+rel, "declaration is nil")
		}
		if ec.Path == "" {
			return &MissingPathError{Rel: rel}
		}
		if ec.Href == nil {
			return configErrorf("embedded "+rel, "href is required")
		}
		if err := validateConfig(&ec.Config); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
