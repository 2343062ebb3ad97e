package hal

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type person struct {
	ID        int    `json:"id,omitempty"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	CompanyID int    `json:"companyId,omitempty"`
}

// account hides its password through a custom JSON encoding.
type account struct {
	Login    string
	Password string
}

func (a account) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Login string `json:"login"`
	}{a.Login})
}

func newTestFactory(t *testing.T, opts ...FactoryOption) (*Factory, *Registry) {
	t.Helper()
	reg := NewRegistry()
	reg.MustAddNamespace(NamespaceOptions{Name: "mycompany", Prefix: "mco"})
	return NewFactory(append([]FactoryOption{WithRegistry(reg)}, opts...)...), reg
}

func marshal(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func TestRepresentationPlainEntity(t *testing.T) {
	f, _ := newTestFactory(t)
	rep := f.MustCreate(person{FirstName: "Bob", LastName: "Smith"}, Href("/people"))

	assert.Equal(t,
		`{"_links":{"self":{"href":"/people"}},"firstName":"Bob","lastName":"Smith"}`,
		marshal(t, rep))
}

func TestRepresentationSelfHref(t *testing.T) {
	f, _ := newTestFactory(t)

	rapid.Check(t, func(t *rapid.T) {
		href := rapid.StringMatching(`[a-z0-9/._{}?=&-]{1,40}`).Draw(t, "href")
		rep, err := f.Create(map[string]any{"n": 1}, Href(href))
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		data, err := json.Marshal(rep)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var out struct {
			Links struct {
				Self Link `json:"self"`
			} `json:"_links"`
		}
		if err := json.Unmarshal(data, &out); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if out.Links.Self.Href != href {
			t.Fatalf("self href = %q, want %q", out.Links.Self.Href, href)
		}
	})
}

func TestCreateSelfHrefFunc(t *testing.T) {
	f, _ := newTestFactory(t)

	rep, err := f.Create(person{ID: 7}, HrefFunc(func(_ *Representation, entity any) (string, error) {
		return fmt.Sprintf("/people/%d", entity.(person).ID), nil
	}))
	require.NoError(t, err)
	assert.Equal(t, "/people/7", rep.Self().Href)

	_, err = f.Create(nil, HrefFunc(func(*Representation, any) (string, error) {
		return "", errors.New("no id")
	}))
	assert.True(t, IsHookError(err))

	_, err = f.Create(nil, Href(""))
	assert.True(t, IsConfigurationError(err))
}

func TestLinkCollapse(t *testing.T) {
	f, _ := newTestFactory(t)
	rep := f.MustCreate(nil, Href("/people"))

	require.NoError(t, rep.Link("mco:friend", Href("/people/1")))
	assert.Equal(t, `{"_links":{"self":{"href":"/people"},"curies":[{"href":"/rels/mycompany/{rel}","templated":true,"name":"mco"}],"mco:friend":{"href":"/people/1"}}}`, marshal(t, rep))

	require.NoError(t, rep.Link("mco:friend", Href("/people/2")))
	require.NoError(t, rep.Link("mco:friend", Href("/people/3")))

	links := rep.Links("mco:friend")
	require.Len(t, links, 3)
	assert.Equal(t, "/people/1", links[0].Href)
	assert.Equal(t, "/people/2", links[1].Href)
	assert.Equal(t, "/people/3", links[2].Href)

	assert.Contains(t, marshal(t, rep),
		`"mco:friend":[{"href":"/people/1"},{"href":"/people/2"},{"href":"/people/3"}]`)
}

func TestLinkSelfCollapses(t *testing.T) {
	f, _ := newTestFactory(t)
	rep := f.MustCreate(nil, Href("/o"))

	require.NoError(t, rep.Link("mco:friend", Href("/people/1")))
	require.NoError(t, rep.Link("self", Href("/other")))

	assert.Equal(t, "/o", rep.Self().Href)
	require.Len(t, rep.Links("self"), 2)
	assert.Equal(t,
		`{"_links":{"self":[{"href":"/o"},{"href":"/other"}],"curies":[{"href":"/rels/mycompany/{rel}","templated":true,"name":"mco"}],"mco:friend":{"href":"/people/1"}}}`,
		marshal(t, rep))
}

func TestLinkCollapseProperty(t *testing.T) {
	f, _ := newTestFactory(t)

	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(t, "n")
		rep := f.MustCreate(nil, Href("/"))
		for i := 0; i < n; i++ {
			if err := rep.Link("item", Href(fmt.Sprintf("/items/%d", i))); err != nil {
				t.Fatalf("link: %v", err)
			}
		}

		doc, err := rep.Document()
		if err != nil {
			t.Fatalf("document: %v", err)
		}
		links, _ := doc.Get("_links")
		v, _ := links.(*Document).Get("item")

		if n == 1 {
			if l, ok := v.(*Link); !ok || l.Href != "/items/0" {
				t.Fatalf("single link = %#v", v)
			}
			return
		}
		arr, ok := v.([]any)
		if !ok || len(arr) != n {
			t.Fatalf("links = %#v, want %d element array", v, n)
		}
		for i, item := range arr {
			if want := fmt.Sprintf("/items/%d", i); item.(*Link).Href != want {
				t.Fatalf("link %d = %q, want %q", i, item.(*Link).Href, want)
			}
		}
	})
}

func TestLinkArraySource(t *testing.T) {
	f, _ := newTestFactory(t)
	rep := f.MustCreate(nil, Href("/people"))

	require.NoError(t, rep.Link("mco:none", Links{}))
	require.NoError(t, rep.Link("mco:one", Links{Href("/people/1")}))

	out := marshal(t, rep)
	assert.Contains(t, out, `"mco:none":[]`)
	assert.Contains(t, out, `"mco:one":[{"href":"/people/1"}]`)
}

func TestLinkResolvesAndExpands(t *testing.T) {
	f, _ := newTestFactory(t)
	rep := f.MustCreate(person{ID: 42, CompanyID: 7}, Href("/people/42?expand=true"))

	require.NoError(t, rep.Link("mco:company", Href("../../companies/{companyId}")))
	require.NoError(t, rep.Link("mco:avatar", Href("./avatar")))
	require.NoError(t, rep.Link("mco:search", Link{Href: "/people{?q}", Templated: true, Title: "Search"}))
	require.NoError(t, rep.Link("mco:home", HrefFunc(func(r *Representation, entity any) (string, error) {
		return fmt.Sprintf("./home/%d", entity.(person).ID), nil
	})))

	assert.Equal(t, "/companies/7", rep.Links("mco:company")[0].Href)
	assert.Equal(t, "/people/42/avatar", rep.Links("mco:avatar")[0].Href)
	assert.Equal(t, "/people/42/home/42", rep.Links("mco:home")[0].Href)

	search := rep.Links("mco:search")[0]
	assert.Equal(t, "/people{?q}", search.Href)
	assert.True(t, search.Templated)
	assert.Equal(t, "Search", search.Title)
}

func TestLinkErrorsLeaveRepresentationUntouched(t *testing.T) {
	f, _ := newTestFactory(t)
	rep := f.MustCreate(nil, Href("/people"))

	err := rep.Link("mco:bad", Links{Href("/ok"), Href("")})
	assert.True(t, IsConfigurationError(err))

	err = rep.Link("mco:broken", HrefFunc(func(*Representation, any) (string, error) {
		return "", errors.New("boom")
	}))
	assert.True(t, IsHookError(err))

	assert.Nil(t, rep.Links("mco:bad"))
	assert.Equal(t, `{"_links":{"self":{"href":"/people"}}}`, marshal(t, rep))
}

func TestLinkStrictRels(t *testing.T) {
	f, _ := newTestFactory(t, WithStrictRels(true))
	rep := f.MustCreate(nil, Href("/people"))

	err := rep.Link("mco:typo", Href("/x"))
	assert.True(t, IsUnknownRel(err))

	require.NoError(t, rep.Link("self-service", Href("/x")))
}

func TestIgnore(t *testing.T) {
	f, _ := newTestFactory(t)
	entity := struct {
		A string `json:"a"`
		B string `json:"b"`
		C string `json:"c"`
		D string `json:"d"`
	}{"1", "2", "3", "4"}

	rep := f.MustCreate(entity, Href("/x"))
	rep.Ignore("a", "b")
	rep.Ignore("b", "")

	assert.Equal(t, []string{"a", "b"}, rep.Ignored())
	assert.Equal(t, `{"_links":{"self":{"href":"/x"}},"c":"3","d":"4"}`, marshal(t, rep))
}

func TestIgnoreNestedPath(t *testing.T) {
	f, _ := newTestFactory(t)
	entity := map[string]any{
		"name":    "Acme",
		"address": map[string]any{"city": "Springfield", "street": "Main"},
	}

	rep := f.MustCreate(entity, Href("/companies/1"))
	rep.Ignore("address.street")

	assert.Equal(t,
		`{"_links":{"self":{"href":"/companies/1"}},"address":{"city":"Springfield"},"name":"Acme"}`,
		marshal(t, rep))
}

func TestCustomSerializationHidesFields(t *testing.T) {
	f, _ := newTestFactory(t)
	rep := f.MustCreate(account{Login: "bob", Password: "hunter2"}, Href("/accounts/bob"))

	out := marshal(t, rep)
	assert.Equal(t, `{"_links":{"self":{"href":"/accounts/bob"}},"login":"bob"}`, out)
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "Password")
}

func TestPropAndMerge(t *testing.T) {
	f, _ := newTestFactory(t)
	rep := f.MustCreate(person{FirstName: "Bob", LastName: "Smith"}, Href("/people/1"))

	rep.Prop("lastName", "Jones")
	require.NoError(t, rep.Merge(map[string]any{"b": 2, "a": 1}))
	require.NoError(t, rep.Merge(struct {
		Age int `json:"age"`
	}{40}))

	assert.Equal(t,
		`{"_links":{"self":{"href":"/people/1"}},"firstName":"Bob","lastName":"Jones","a":1,"b":2,"age":40}`,
		marshal(t, rep))

	err := rep.Merge([]int{1, 2})
	assert.True(t, IsConfigurationError(err))
}

func TestEntityReservedKeysDropped(t *testing.T) {
	f, _ := newTestFactory(t)
	entity := map[string]any{"_links": "nope", "_embedded": "nope", "name": "x"}

	rep := f.MustCreate(entity, Href("/x"))
	assert.Equal(t, `{"_links":{"self":{"href":"/x"}},"name":"x"}`, marshal(t, rep))
}

func TestResolve(t *testing.T) {
	f, _ := newTestFactory(t)
	rep := f.MustCreate(nil, Href("/people"))

	assert.Equal(t, "/people/1234", rep.Resolve("./1234"))
	assert.Equal(t, "/1234", rep.Resolve("../1234"))
	assert.Equal(t, "/companies/100", rep.Resolve("/companies/100"))
	assert.Equal(t, []*Link{rep.Self()}, rep.Links("self"))
}

func TestEmbed(t *testing.T) {
	f, _ := newTestFactory(t)
	boss := person{ID: 2, FirstName: "Alice", LastName: "Boss"}
	rep := f.MustCreate(person{ID: 1, FirstName: "Bob", LastName: "Smith"}, Href("/people/1"))

	child, err := rep.Embed("mco:boss", Href("./boss/{item.id}?of={self.id}"), boss)
	require.NoError(t, err)
	require.NoError(t, child.Link("mco:company", Href("/companies/1")))

	assert.False(t, child.IsRoot())
	assert.True(t, rep.IsRoot())
	assert.Same(t, f, child.Factory())
	assert.Equal(t, boss, child.Entity())
	assert.Equal(t, "/people/1/boss/2?of=1", child.Self().Href)

	assert.Equal(t,
		`{"_links":{"self":{"href":"/people/1"},"curies":[{"href":"/rels/mycompany/{rel}","templated":true,"name":"mco"}]},`+
			`"id":1,"firstName":"Bob","lastName":"Smith",`+
			`"_embedded":{"mco:boss":{"_links":{"self":{"href":"/people/1/boss/2?of=1"},"mco:company":{"href":"/companies/1"}},"id":2,"firstName":"Alice","lastName":"Boss"}}}`,
		marshal(t, rep))
}

func TestEmbedCollection(t *testing.T) {
	f, _ := newTestFactory(t)
	rep := f.MustCreate(nil, Href("/people"))

	children, err := rep.EmbedCollection("mco:person", Href("./{item.id}"), []person{{ID: 1}, {ID: 2}})
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "/people/1", children[0].Self().Href)
	assert.Equal(t, "/people/2", children[1].Self().Href)

	single, err := rep.EmbedCollection("mco:lonely", Href("./{item.id}"), person{ID: 3})
	require.NoError(t, err)
	require.Len(t, single, 1)

	out := marshal(t, rep)
	assert.Contains(t, out, `"mco:lonely":[{"_links":{"self":{"href":"/people/3"}},"id":3,"firstName":"","lastName":""}]`)
	assert.Len(t, rep.Embedded("mco:person"), 2)
}

func TestEmbedEmptyCollection(t *testing.T) {
	f, _ := newTestFactory(t)
	rep := f.MustCreate(nil, Href("/people"))

	_, err := rep.EmbedCollection("mco:person", Href("./{item.id}"), []person{})
	require.NoError(t, err)
	_, err = rep.EmbedCollection("mco:nobody", Href("./{item.id}"), nil)
	require.NoError(t, err)

	assert.Equal(t,
		`{"_links":{"self":{"href":"/people"},"curies":[{"href":"/rels/mycompany/{rel}","templated":true,"name":"mco"}]},"_embedded":{"mco:person":[],"mco:nobody":[]}}`,
		marshal(t, rep))
}

func TestEmbeddedOmittedWhenEmpty(t *testing.T) {
	f, _ := newTestFactory(t)
	rep := f.MustCreate(nil, Href("/people"))

	assert.NotContains(t, marshal(t, rep), "_embedded")
}

func TestCuriesDeclaredOnceAtRoot(t *testing.T) {
	f, reg := newTestFactory(t)
	reg.MustAddNamespace(NamespaceOptions{Name: "acme", Prefix: "acme"})

	rep := f.MustCreate(map[string]any{"name": "Acme"}, Href("/companies/1"))
	require.NoError(t, rep.Link("mco:boss", Href("/people/2")))

	child, err := rep.Embed("mco:employee", Href("/people/{item.id}"), map[string]any{"id": 3})
	require.NoError(t, err)
	require.NoError(t, child.Link("mco:boss", Href("/people/2")))
	require.NoError(t, child.Link("acme:badge", Href("/badges/3")))

	assert.Equal(t,
		`{"_links":{"self":{"href":"/companies/1"},"curies":[`+
			`{"href":"/rels/acme/{rel}","templated":true,"name":"acme"},`+
			`{"href":"/rels/mycompany/{rel}","templated":true,"name":"mco"}],`+
			`"mco:boss":{"href":"/people/2"}},"name":"Acme",`+
			`"_embedded":{"mco:employee":{"_links":{"self":{"href":"/people/3"},"mco:boss":{"href":"/people/2"},"acme:badge":{"href":"/badges/3"}},"id":3}}}`,
		marshal(t, rep))
}

func TestCuriesUseRelsPath(t *testing.T) {
	f, _ := newTestFactory(t, WithRelsPath("/docs/rels/"))
	rep := f.MustCreate(nil, Href("/"))
	require.NoError(t, rep.Link("mco:x", Href("/x")))

	assert.Contains(t, marshal(t, rep), `"href":"/docs/rels/mycompany/{rel}"`)
}

func TestGlobalRelsEmitNoCuries(t *testing.T) {
	f, _ := newTestFactory(t)
	rep := f.MustCreate(nil, Href("/people?page=2"))
	require.NoError(t, rep.Link("next", Href("/people?page=3")))
	require.NoError(t, rep.Link("unknown:rel", Href("/x")))

	assert.Equal(t,
		`{"_links":{"self":{"href":"/people?page=2"},"next":{"href":"/people?page=3"},"unknown:rel":{"href":"/x"}}}`,
		marshal(t, rep))
}

func TestRepresentationConcurrentLinks(t *testing.T) {
	f, _ := newTestFactory(t)
	rep := f.MustCreate(nil, Href("/"))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, rep.Link("mco:item", Href(fmt.Sprintf("/items/%d", i))))
			rep.Prop(fmt.Sprintf("p%d", i), i)
		}(i)
	}
	wg.Wait()

	assert.Len(t, rep.Links("mco:item"), 50)
	doc, err := rep.Document()
	require.NoError(t, err)
	assert.Equal(t, 51, doc.Len())
}
