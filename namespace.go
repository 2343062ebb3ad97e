package hal

import (
	"regexp"
	"sort"
	"strings"
	"sync"
)

// Rel is a named link relation. Rels that belong to a namespace are
// qualified with the namespace prefix ("mco:boss"); global rels such as
// "self" or "next" are not.
//
// A registered Rel is never modified. Updating it through AddRel swaps in a
// new Rel, so look it up again to see the update.
type Rel struct {
	Name        string
	File        string // documentation source, if any
	Description string

	namespace *Namespace
}

// RelOptions describes a rel to add to a namespace.
type RelOptions struct {
	Name        string
	File        string
	Description string
}

// Namespace returns the namespace owning the rel, or nil for global rels.
func (r *Rel) Namespace() *Namespace {
	return r.namespace
}

// QName returns the qualified name: "prefix:name" for namespaced rels and
// just the name otherwise.
func (r *Rel) QName() string {
	if r.namespace == nil {
		return r.Name
	}
	return r.namespace.Prefix + ":" + r.Name
}

// Namespace groups rels under a CURIE prefix.
type Namespace struct {
	Name        string
	Prefix      string
	Description string
	Dir         string

	mu   sync.RWMutex
	rels map[string]*Rel
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.\-]*$`)

// AddRel registers a rel. Adding a rel that already exists replaces it with
// a copy carrying the new file and description and returns the copy.
func (ns *Namespace) AddRel(opts RelOptions) (*Rel, error) {
	if opts.Name == "" {
		return nil, configErrorf("rel", "name is required")
	}
	if strings.ContainsAny(opts.Name, ": \t\n/") {
		return nil, configErrorf("rel "+opts.Name, "name must not contain ':', '/' or whitespace")
	}

	ns.mu.Lock()
	defer ns.mu.Unlock()

	if old, ok := ns.rels[opts.Name]; ok {
		rel := *old
		if opts.File != "" {
			rel.File = opts.File
		}
		if opts.Description != "" {
			rel.Description = opts.Description
		}
		ns.rels[opts.Name] = &rel
		return &rel, nil
	}

	rel := &Rel{
		Name:        opts.Name,
		File:        opts.File,
		Description: opts.Description,
		namespace:   ns,
	}
	ns.rels[opts.Name] = rel
	return rel, nil
}

// Rel returns the rel registered under name.
func (ns *Namespace) Rel(name string) (*Rel, bool) {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	rel, ok := ns.rels[name]
	return rel, ok
}

// Rels returns the namespace's rels ordered by name.
func (ns *Namespace) Rels() []*Rel {
	ns.mu.RLock()
	rels := make([]*Rel, 0, len(ns.rels))
	for _, rel := range ns.rels {
		rels = append(rels, rel)
	}
	ns.mu.RUnlock()

	sort.Slice(rels, func(i, j int) bool { return rels[i].Name < rels[j].Name })
	return rels
}

// CurieHref returns the templated href documenting this namespace's rels,
// e.g. "/rels/mycompany/{rel}" for base "/rels".
func (ns *Namespace) CurieHref(base string) string {
	return strings.TrimSuffix(base, "/") + "/" + ns.Name + "/{rel}"
}
