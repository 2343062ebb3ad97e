package hal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePath(t *testing.T) {
	tests := []struct {
		base string
		href string
		want string
	}{
		{"/people", "./1234", "/people/1234"},
		{"/people", "../1234", "/1234"},
		{"/people", "/companies/100", "/companies/100"},
		{"/people?page=2", "./1234", "/people/1234"},
		{"/people/", "./1234", "/people/1234"},
		{"/people/1", "./boss?expand=true", "/people/1/boss?expand=true"},
		{"/people/1", "../../x", "/x"},
		{"/people", "./friends/", "/people/friends/"},
		{"https://api.example.com/people", "./1", "https://api.example.com/people/1"},
		{"https://api.example.com", "./1", "https://api.example.com/1"},
		{"/people", "https://elsewhere.example.com/x", "https://elsewhere.example.com/x"},
		{"/people", "./{id}", "/people/{id}"},
	}

	for _, tt := range tests {
		t.Run(tt.base+"+"+tt.href, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolvePath(tt.base, tt.href))
		})
	}
}

func TestResolveLinkNormalizes(t *testing.T) {
	fn := HrefFunc(func(*Representation, any) (string, error) { return "/x", nil })

	tests := []struct {
		name string
		desc LinkDescriptor
		base string
		want Link
	}{
		{"literal", Href("/people"), "", Link{Href: "/people"}},
		{"relative literal", Href("./1"), "/people", Link{Href: "/people/1"}},
		{"relative without base", Href("./1"), "", Link{Href: "./1"}},
		{"full object", Link{Href: "./boss", Title: "Boss", Templated: true}, "/people/1", Link{Href: "/people/1/boss", Title: "Boss", Templated: true}},
		{"pointer object", &Link{Href: "/a", Name: "a"}, "", Link{Href: "/a", Name: "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveLink(tt.desc, tt.base)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}

	got, err := ResolveLink(fn, "/people")
	require.NoError(t, err)
	assert.Empty(t, got.Href)
	assert.NotNil(t, got.HrefFunc)
}

func TestResolveLinkDoesNotAlias(t *testing.T) {
	orig := &Link{Href: "./x", Title: "orig"}
	got, err := ResolveLink(orig, "/base")
	require.NoError(t, err)

	got.Title = "changed"
	assert.Equal(t, "orig", orig.Title)
	assert.Equal(t, "./x", orig.Href)
}

func TestResolveLinkErrors(t *testing.T) {
	tests := []struct {
		name string
		desc LinkDescriptor
	}{
		{"nil", nil},
		{"nil pointer", (*Link)(nil)},
		{"nil func", HrefFunc(nil)},
		{"missing href", Link{Title: "no href"}},
		{"empty literal", Href("")},
		{"list", Links{Href("/a")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveLink(tt.desc, "")
			require.Error(t, err)
			assert.True(t, IsConfigurationError(err), "got %v", err)
		})
	}
}

func TestExpandHref(t *testing.T) {
	entity := map[string]any{
		"id":  42,
		"foo": map[string]any{"a": map[string]any{"b": "deep"}},
		"tags": []string{"x", "y"},
	}

	tests := []struct {
		href string
		want string
	}{
		{"/people/{id}", "/people/42"},
		{"/x/{foo.a.b}", "/x/deep"},
		{"/missing/{nope}", "/missing/"},
		{"/tags{?tags}", "/tags?tags=x,y"},
		{"/plain", "/plain"},
	}

	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			got, err := ExpandHref(tt.href, entity)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpandHrefMalformed(t *testing.T) {
	_, err := ExpandHref("/people/{id", nil)
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
}
