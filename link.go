package hal

import (
	"path"
	"strings"
)

// LinkDescriptor is anything that can describe a link: a literal Href, a
// computed HrefFunc, a full Link, or a Links list. Every descriptor goes
// through ResolveLink (or Representation.Link for lists) before any other
// code looks at it.
type LinkDescriptor interface {
	linkDescriptor()
}

// Href is a literal href. It may be relative ("./x", "../x") and may contain
// URI template variables that are expanded against the entity.
type Href string

// HrefFunc computes an href once the representation and its entity are
// known. For embedded resources entity is an EmbedScope.
type HrefFunc func(rep *Representation, entity any) (string, error)

// Links describes a rel whose value is always serialized as an array, even
// when it holds zero or one link.
type Links []LinkDescriptor

// Link is a HAL link object. HrefFunc, when set, is evaluated in place of
// Href by the representation that owns the link.
type Link struct {
	Href        string   `json:"href" msgpack:"href"`
	Templated   bool     `json:"templated,omitempty" msgpack:"templated,omitempty"`
	Title       string   `json:"title,omitempty" msgpack:"title,omitempty"`
	Type        string   `json:"type,omitempty" msgpack:"type,omitempty"`
	Deprecation string   `json:"deprecation,omitempty" msgpack:"deprecation,omitempty"`
	Name        string   `json:"name,omitempty" msgpack:"name,omitempty"`
	Profile     string   `json:"profile,omitempty" msgpack:"profile,omitempty"`
	Hreflang    string   `json:"hreflang,omitempty" msgpack:"hreflang,omitempty"`
	HrefFunc    HrefFunc `json:"-" msgpack:"-"`
}

func (Href) linkDescriptor()     {}
func (HrefFunc) linkDescriptor() {}
func (Links) linkDescriptor()    {}
func (Link) linkDescriptor()     {}

// ResolveLink normalizes desc into a fresh Link. Relative literal hrefs are
// resolved against base (minus its query string) when base is not empty;
// rooted and absolute hrefs pass through. A computed href is left for the
// owning representation to evaluate.
//
// The returned Link never aliases desc, so callers may mutate it freely.
func ResolveLink(desc LinkDescriptor, base string) (*Link, error) {
	l, err := normalizeLink(desc)
	if err != nil {
		return nil, err
	}
	if base != "" {
		l.Href = ResolvePath(base, l.Href)
	}
	return l, nil
}

func normalizeLink(desc LinkDescriptor) (*Link, error) {
	var l Link
	switch d := desc.(type) {
	case nil:
		return nil, configErrorf("link", "descriptor is nil")
	case Href:
		l.Href = string(d)
	case HrefFunc:
		if d == nil {
			return nil, configErrorf("link", "href function is nil")
		}
		l.HrefFunc = d
	case Link:
		l = d
	case *Link:
		if d == nil {
			return nil, configErrorf("link", "descriptor is nil")
		}
		l = *d
	case Links:
		return nil, configErrorf("link", "a link list does not resolve to a single link")
	default:
		return nil, configErrorf("link", "unsupported descriptor %T", desc)
	}
	if l.Href == "" && l.HrefFunc == nil {
		return nil, configErrorf("link", "href is required")
	}
	return &l, nil
}

// IsRelative reports whether href is relative to the representation that
// declares it ("./x" or "../x").
func IsRelative(href string) bool {
	return strings.HasPrefix(href, "./") || strings.HasPrefix(href, "../")
}

// ResolvePath resolves a relative href against base. The base's query and
// fragment are dropped and the base path is treated as a directory, so
// "./1234" from "/people" is "/people/1234" and "../1234" is "/1234".
// Non-relative hrefs are returned unchanged.
func ResolvePath(base, href string) string {
	if !IsRelative(href) {
		return href
	}
	base = stripQuery(base)

	var origin string
	if i := strings.Index(base, "://"); i >= 0 {
		rest := base[i+3:]
		if j := strings.Index(rest, "/"); j >= 0 {
			origin, base = base[:i+3+j], rest[j:]
		} else {
			origin, base = base, "/"
		}
	}
	if base == "" {
		base = "/"
	}

	ref, suffix := href, ""
	if i := strings.IndexAny(href, "?#"); i >= 0 {
		ref, suffix = href[:i], href[i:]
	}
	joined := path.Join(base, ref)
	if strings.HasSuffix(ref, "/") && !strings.HasSuffix(joined, "/") {
		joined += "/"
	}
	return origin + joined + suffix
}

func stripQuery(u string) string {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		return u[:i]
	}
	return u
}
