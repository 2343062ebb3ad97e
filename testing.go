package hal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
)

// TestResult holds a serialized HAL document for assertions.
//
// Provides convenience methods for looking up links, embedded resources and
// properties without decoding the document by hand.
type TestResult struct {
	JSON       string
	StatusCode int
	Headers    http.Header
	Rep        *Representation // nil for TestRequest results

	doc map[string]any
}

// TestConfigure builds the representation of entity at self, applies cfg
// and returns the serialized document.
//
// Use this for unit tests of route configs and entity hooks that don't need
// HTTP mechanics:
//
//	result, err := hal.TestConfigure(person, "/people/1", personConfig)
//	if result.LinkHref("mco:company") != "/companies/3" {
//	    t.Fatal("wrong company link")
//	}
func TestConfigure(entity any, self string, cfg *Config, opts ...FactoryOption) (*TestResult, error) {
	return TestConfigureWithContext(context.Background(), entity, self, cfg, opts...)
}

// TestConfigureWithContext is TestConfigure with a custom context, for
// hooks that read request-scoped values.
func TestConfigureWithContext(ctx context.Context, entity any, self string, cfg *Config, opts ...FactoryOption) (*TestResult, error) {
	rep, err := NewFactory(opts...).Create(entity, Href(self))
	if err != nil {
		return nil, err
	}
	rep, err = Configure(ctx, rep, cfg)
	if err != nil {
		return nil, err
	}
	data, err := rep.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return newTestResult(string(data), http.StatusOK, make(http.Header), rep), nil
}

// TestRequest serves a GET request for target through rs and returns the
// response. Use it to test negotiation and error handling end to end.
//
//	result := hal.TestRequest(rs, "/people/1", "application/hal+json", person, cfg)
//	if !result.IsOK() { ... }
func TestRequest(rs *Responder, target, accept string, entity any, cfg *Config) *TestResult {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	rec := httptest.NewRecorder()
	rs.Respond(rec, req, entity, cfg)
	return newTestResult(rec.Body.String(), rec.Code, rec.Header(), nil)
}

func newTestResult(body string, status int, headers http.Header, rep *Representation) *TestResult {
	r := &TestResult{JSON: body, StatusCode: status, Headers: headers, Rep: rep}
	_ = json.Unmarshal([]byte(body), &r.doc)
	return r
}

// JSONContains checks if the serialized document contains a substring.
func (r *TestResult) JSONContains(substr string) bool {
	return strings.Contains(r.JSON, substr)
}

// Prop returns a top-level property of the document.
func (r *TestResult) Prop(name string) (any, bool) {
	v, ok := r.doc[name]
	return v, ok
}

// HasLink checks if the document has a link under rel.
func (r *TestResult) HasLink(rel string) bool {
	return len(r.LinkHrefs(rel)) > 0 || r.isEmptyArray("_links", rel)
}

// LinkHref returns the href of the first link under rel, or "".
func (r *TestResult) LinkHref(rel string) string {
	hrefs := r.LinkHrefs(rel)
	if len(hrefs) == 0 {
		return ""
	}
	return hrefs[0]
}

// LinkHrefs returns the hrefs of every link under rel in document order.
func (r *TestResult) LinkHrefs(rel string) []string {
	var hrefs []string
	for _, v := range r.section("_links", rel) {
		if l, ok := v.(map[string]any); ok {
			if href, ok := l["href"].(string); ok {
				hrefs = append(hrefs, href)
			}
		}
	}
	return hrefs
}

// SelfHref returns the document's self href.
func (r *TestResult) SelfHref() string {
	return r.LinkHref("self")
}

// Embedded returns the documents embedded under rel in document order.
func (r *TestResult) Embedded(rel string) []map[string]any {
	var out []map[string]any
	for _, v := range r.section("_embedded", rel) {
		if doc, ok := v.(map[string]any); ok {
			out = append(out, doc)
		}
	}
	return out
}

// Curies returns the CURIE prefixes declared in the document.
func (r *TestResult) Curies() []string {
	var names []string
	for _, v := range r.section("_links", "curies") {
		if l, ok := v.(map[string]any); ok {
			if name, ok := l["name"].(string); ok {
				names = append(names, name)
			}
		}
	}
	return names
}

// IsOK checks if the status code is 200.
func (r *TestResult) IsOK() bool {
	return r.StatusCode == http.StatusOK
}

// HasStatus checks if the status code matches.
func (r *TestResult) HasStatus(code int) bool {
	return r.StatusCode == code
}

// GetHeader returns the value of a header.
func (r *TestResult) GetHeader(key string) string {
	return r.Headers.Get(key)
}

// section returns the values under doc[key][rel], flattening arrays.
func (r *TestResult) section(key, rel string) []any {
	m, ok := r.doc[key].(map[string]any)
	if !ok {
		return nil
	}
	switch v := m[rel].(type) {
	case nil:
		return nil
	case []any:
		return v
	default:
		return []any{v}
	}
}

func (r *TestResult) isEmptyArray(key, rel string) bool {
	m, ok := r.doc[key].(map[string]any)
	if !ok {
		return false
	}
	arr, ok := m[rel].([]any)
	return ok && len(arr) == 0
}
