package hal

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// Representation is a HAL document under construction: an entity plus its
// self link, links, embedded representations and extra properties.
//
// A representation tree shares one CURIE set owned by its root, so every
// namespace is declared once in the root's `_links.curies` no matter where
// in the tree its rels are used.
//
// The methods are safe to call from the goroutines configuring sibling
// embedded representations.
type Representation struct {
	self    *Link
	entity  any
	factory *Factory
	curies  *curieSet
	root    bool

	mu       sync.Mutex
	links    *relMap[*Link]
	embedded *relMap[*Representation]
	props    *Document
	ignored  map[string]struct{}
	ignores  []string
}

// EmbedScope is the template and HrefFunc context for the self link of an
// embedded representation: {self.id} is the parent entity's id and
// {item.id} the embedded entity's.
type EmbedScope struct {
	Self any `json:"self"`
	Item any `json:"item"`
}

var (
	_ json.Marshaler        = (*Representation)(nil)
	_ msgpack.CustomEncoder = (*Representation)(nil)
)

// Self returns the self link.
func (r *Representation) Self() *Link {
	return r.self
}

// Entity returns the wrapped entity.
func (r *Representation) Entity() any {
	return r.entity
}

// Factory returns the factory that created the representation.
func (r *Representation) Factory() *Factory {
	return r.factory
}

// IsRoot reports whether the representation is the root of its tree.
func (r *Representation) IsRoot() bool {
	return r.root
}

// Resolve resolves a relative path against the self href without creating
// a link. Rooted and absolute paths are returned unchanged.
func (r *Representation) Resolve(relative string) string {
	return ResolvePath(r.base(), relative)
}

func (r *Representation) base() string {
	return stripQuery(r.self.Href)
}

// Link adds a link under rel. A second link for the same rel turns the rel
// into an array; later links are appended in call order. A Links
// descriptor always produces an array, even when it is empty.
//
// Relative hrefs are resolved against the self href, then template
// variables are expanded against the entity unless the link is templated.
func (r *Representation) Link(rel string, desc LinkDescriptor) error {
	qrel, err := r.rel(rel)
	if err != nil {
		return err
	}

	if list, ok := desc.(Links); ok {
		resolved := make([]*Link, 0, len(list))
		for _, d := range list {
			l, err := r.resolveLink(d, r.entity)
			if err != nil {
				return fmt.Errorf("link %q: %w", rel, err)
			}
			resolved = append(resolved, l)
		}
		r.declare(qrel)
		r.mu.Lock()
		r.links.seed(qrel.QName())
		for _, l := range resolved {
			r.links.add(qrel.QName(), l)
		}
		r.mu.Unlock()
		return nil
	}

	l, err := r.resolveLink(desc, r.entity)
	if err != nil {
		return fmt.Errorf("link %q: %w", rel, err)
	}
	r.declare(qrel)
	r.mu.Lock()
	r.links.add(qrel.QName(), l)
	r.mu.Unlock()
	return nil
}

// Links returns the links stored under the qualified rel name.
func (r *Representation) Links(qname string) []*Link {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.links.get(qname)
}

// Embed embeds entity under rel and returns the new child representation
// so the caller can keep customizing it. The child's self descriptor is
// resolved against this representation's self href and expanded against
// an EmbedScope{Self: r.Entity(), Item: entity}.
func (r *Representation) Embed(rel string, self LinkDescriptor, entity any) (*Representation, error) {
	qrel, err := r.rel(rel)
	if err != nil {
		return nil, err
	}
	l, err := r.resolveLink(self, EmbedScope{Self: r.entity, Item: entity})
	if err != nil {
		return nil, fmt.Errorf("embedded %q: %w", rel, err)
	}

	child := r.factory.newRepresentation(entity, l, r.curies, false)
	r.declare(qrel)
	r.mu.Lock()
	r.embedded.add(qrel.QName(), child)
	r.mu.Unlock()
	return child, nil
}

// EmbedCollection embeds every element of entities under rel. A non-slice
// value is treated as a one-element collection and nil as an empty one.
// The rel is always serialized as an array, so an empty collection still
// yields `"rel": []`.
func (r *Representation) EmbedCollection(rel string, self LinkDescriptor, entities any) ([]*Representation, error) {
	qrel, err := r.rel(rel)
	if err != nil {
		return nil, err
	}

	items := toSlice(entities)
	children := make([]*Representation, 0, len(items))
	for i, item := range items {
		l, err := r.resolveLink(self, EmbedScope{Self: r.entity, Item: item})
		if err != nil {
			return nil, fmt.Errorf("embedded %q[%d]: %w", rel, i, err)
		}
		children = append(children, r.factory.newRepresentation(item, l, r.curies, false))
	}

	r.declare(qrel)
	r.mu.Lock()
	r.embedded.seed(qrel.QName())
	for _, child := range children {
		r.embedded.add(qrel.QName(), child)
	}
	r.mu.Unlock()
	return children, nil
}

// Embedded returns the representations embedded under the qualified rel.
func (r *Representation) Embedded(qname string) []*Representation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.embedded.get(qname)
}

// replaceEmbedded swaps old for replacement wherever old is embedded.
func (r *Representation) replaceEmbedded(old, replacement *Representation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.embedded.replace(old, replacement)
}

// Ignore excludes entity properties from the output. Dotted names remove
// nested properties.
func (r *Representation) Ignore(names ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range names {
		if _, ok := r.ignored[name]; ok || name == "" {
			continue
		}
		r.ignored[name] = struct{}{}
		r.ignores = append(r.ignores, name)
	}
}

// Ignored returns the ignored property names in the order they were added.
func (r *Representation) Ignored() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ignores...)
}

// Prop sets an extra output property. Extra properties override entity
// properties with the same name.
func (r *Representation) Prop(name string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.props.Set(name, value)
}

// Merge sets every property of v as an extra property. v may be a
// *Document, a map with string keys (merged in key order) or any value that
// encodes to a JSON object.
func (r *Representation) Merge(v any) error {
	var doc *Document
	switch x := v.(type) {
	case nil:
		return nil
	case *Document:
		doc = x
	case map[string]any:
		doc = NewDocument()
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			doc.Set(k, x[k])
		}
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("hal: merging %T: %w", v, err)
		}
		decoded, err := decodeOrdered(data)
		if err != nil {
			return fmt.Errorf("hal: merging %T: %w", v, err)
		}
		var ok bool
		if doc, ok = decoded.(*Document); !ok {
			return configErrorf("merge", "%T does not encode to an object", v)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range doc.keys {
		r.props.Set(k, doc.values[k])
	}
	return nil
}

// Document serializes the representation tree:
//
//	{ "_links": {self, curies?, ...}, ...entity, ...extra, "_embedded": {...}? }
//
// `_links` is always present; `_embedded` only when something is embedded.
func (r *Representation) Document() (*Document, error) {
	props, err := r.entityProperties()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	doc := NewDocument()

	// self is always the first rel; further self links join it as an array.
	links := NewDocument()
	links.Set("self", r.links.value("self"))
	if r.root {
		if curies := r.curies.links(r.factory.relsPath); len(curies) > 0 {
			links.Set("curies", curies)
		}
	}
	for _, rel := range r.links.order {
		if rel != "self" {
			links.Set(rel, r.links.value(rel))
		}
	}
	doc.Set("_links", links)

	if props != nil {
		for _, name := range r.ignores {
			props.DeletePath(name)
		}
		for _, k := range props.keys {
			if k == "_links" || k == "_embedded" {
				continue
			}
			doc.Set(k, props.values[k])
		}
	}
	for _, k := range r.props.keys {
		doc.Set(k, r.props.values[k])
	}

	if len(r.embedded.order) > 0 {
		embedded := NewDocument()
		for _, rel := range r.embedded.order {
			slot := r.embedded.slots[rel]
			docs := make([]any, len(slot.items))
			for i, child := range slot.items {
				cd, err := child.Document()
				if err != nil {
					return nil, fmt.Errorf("embedded %q: %w", rel, err)
				}
				docs[i] = cd
			}
			if slot.array {
				embedded.Set(rel, docs)
			} else {
				embedded.Set(rel, docs[0])
			}
		}
		doc.Set("_embedded", embedded)
	}
	return doc, nil
}

// MarshalJSON encodes the serialized document.
func (r *Representation) MarshalJSON() ([]byte, error) {
	doc, err := r.Document()
	if err != nil {
		return nil, err
	}
	return doc.MarshalJSON()
}

// EncodeMsgpack encodes the serialized document as msgpack.
func (r *Representation) EncodeMsgpack(enc *msgpack.Encoder) error {
	doc, err := r.Document()
	if err != nil {
		return err
	}
	return doc.EncodeMsgpack(enc)
}

// entityProperties encodes the entity with encoding/json, so json tags and
// custom MarshalJSON methods decide which properties exist, and decodes it
// back into an ordered Document. Entities that do not encode to an object
// contribute no properties.
func (r *Representation) entityProperties() (*Document, error) {
	if r.entity == nil {
		return nil, nil
	}
	data, err := json.Marshal(r.entity)
	if err != nil {
		return nil, fmt.Errorf("hal: encoding entity %T: %w", r.entity, err)
	}
	v, err := decodeOrdered(data)
	if err != nil {
		return nil, fmt.Errorf("hal: decoding entity %T: %w", r.entity, err)
	}
	doc, _ := v.(*Document)
	return doc, nil
}

func (r *Representation) rel(name string) (*Rel, error) {
	return r.factory.Registry().ResolveRel(name, r.factory.strict)
}

// declare records the rel's namespace in the tree's CURIE set.
func (r *Representation) declare(rel *Rel) {
	if ns := rel.Namespace(); ns != nil && r.curies.declare(ns) {
		r.factory.logger.Debug("declared curie", "prefix", ns.Prefix, "namespace", ns.Name)
	}
}

// resolveLink turns desc into a final link: relative hrefs are resolved
// against the self href, computed hrefs are evaluated with ctx and
// untemplated hrefs are expanded against ctx.
func (r *Representation) resolveLink(desc LinkDescriptor, ctx any) (*Link, error) {
	base := r.base()
	l, err := ResolveLink(desc, base)
	if err != nil {
		return nil, err
	}
	if l.HrefFunc != nil {
		href, err := l.HrefFunc(r, ctx)
		if err != nil {
			return nil, &HookError{Hook: "href", Err: err}
		}
		if href == "" {
			return nil, configErrorf("link", "computed href is empty")
		}
		l.Href, l.HrefFunc = ResolvePath(base, href), nil
	}
	if !l.Templated {
		if l.Href, err = ExpandHref(l.Href, ctx); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// toSlice returns the elements of a slice or array, wraps any other
// non-nil value in a one-element slice and returns nil for nil.
func toSlice(v any) []any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out
	}
	return []any{v}
}

func isSlice(v any) bool {
	if v == nil {
		return false
	}
	k := reflect.ValueOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}

// relSlot holds the values of one rel. array is set once the rel holds two
// values or was declared as a collection.
type relSlot[T any] struct {
	items []T
	array bool
}

// relMap keeps rels in first-use order.
type relMap[T comparable] struct {
	order []string
	slots map[string]*relSlot[T]
}

func newRelMap[T comparable]() *relMap[T] {
	return &relMap[T]{slots: make(map[string]*relSlot[T])}
}

func (m *relMap[T]) slot(rel string) *relSlot[T] {
	s, ok := m.slots[rel]
	if !ok {
		s = &relSlot[T]{}
		m.slots[rel] = s
		m.order = append(m.order, rel)
	}
	return s
}

func (m *relMap[T]) add(rel string, v T) {
	s := m.slot(rel)
	s.items = append(s.items, v)
	if len(s.items) > 1 {
		s.array = true
	}
}

func (m *relMap[T]) seed(rel string) {
	m.slot(rel).array = true
}

// value returns the serialized form of rel: the single item, or a slice
// once the rel is an array.
func (m *relMap[T]) value(rel string) any {
	s := m.slots[rel]
	if !s.array {
		return s.items[0]
	}
	arr := make([]any, len(s.items))
	for i, v := range s.items {
		arr[i] = v
	}
	return arr
}

func (m *relMap[T]) get(rel string) []T {
	s, ok := m.slots[rel]
	if !ok {
		return nil
	}
	return append([]T(nil), s.items...)
}

func (m *relMap[T]) replace(old, replacement T) {
	for _, s := range m.slots {
		for i, v := range s.items {
			if v == old {
				s.items[i] = replacement
			}
		}
	}
}

// curieSet records which namespaces a representation tree has used.
type curieSet struct {
	mu   sync.Mutex
	seen map[string]*Namespace
}

// declare reports whether ns was seen for the first time.
func (c *curieSet) declare(ns *Namespace) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seen == nil {
		c.seen = make(map[string]*Namespace)
	}
	if _, ok := c.seen[ns.Prefix]; ok {
		return false
	}
	c.seen[ns.Prefix] = ns
	return true
}

// links returns one templated CURIE link per declared namespace, ordered
// by prefix.
func (c *curieSet) links(relsPath string) []any {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefixes := make([]string, 0, len(c.seen))
	for p := range c.seen {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)

	out := make([]any, 0, len(prefixes))
	for _, p := range prefixes {
		out = append(out, &Link{
			Name:      p,
			Href:      c.seen[p].CurieHref(relsPath),
			Templated: true,
		})
	}
	return out
}
