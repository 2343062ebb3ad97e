package halecho

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/hal"
)

type person struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CompanyID string `json:"companyId"`
}

var errNoPerson = errors.New("no such person")

func newServer(t *testing.T) (*echo.Echo, *hal.Registry) {
	t.Helper()
	reg := hal.NewRegistry()
	reg.MustAddNamespace(hal.NamespaceOptions{Name: "mycompany", Prefix: "mco", Rels: []hal.RelOptions{{Name: "company"}}})

	e := echo.New()
	rs := hal.NewResponder(hal.WithFactory(hal.NewFactory(hal.WithRegistry(reg))))
	router := hal.NewRouter(NewRoutes(e))

	cfg := &hal.Config{Links: map[string]hal.LinkDescriptor{
		"mco:company": router.Href("company"),
	}}
	e.GET("/people/:id", Handler(rs, cfg, func(c echo.Context) (any, error) {
		if c.Param("id") != "1" {
			return nil, echo.NewHTTPError(http.StatusNotFound).SetInternal(errNoPerson)
		}
		return person{ID: "1", Name: "Bob", CompanyID: "3"}, nil
	})).Name = "person"
	e.GET("/companies/:companyId", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}).Name = "company"

	MountDocs(e, reg)
	MountAPIRoot(e, rs, "/")
	return e, reg
}

func get(e *echo.Echo, path, accept string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandler(t *testing.T) {
	e, _ := newServer(t)

	rec := get(e, "/people/1", "application/hal+json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/hal+json", rec.Header().Get("Content-Type"))

	var doc struct {
		Links map[string]any `json:"_links"`
		Name  string         `json:"name"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "Bob", doc.Name)
	assert.Equal(t, map[string]any{"href": "/people/1"}, doc.Links["self"])
	assert.Equal(t, map[string]any{"href": "/companies/3"}, doc.Links["mco:company"])
}

func TestHandlerLenientAccept(t *testing.T) {
	e, _ := newServer(t)

	rec := get(e, "/people/1", "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/hal+json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"_links":{"self":{"href":"/people/1"},"mco:company":{"href":"/companies/3"},"curies":[{"name":"mco","href":"/rels/mycompany/{rel}","templated":true}]},"id":"1","name":"Bob","companyId":"3"}`, rec.Body.String())
}

func TestHandlerFetchError(t *testing.T) {
	e, _ := newServer(t)

	rec := get(e, "/people/2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRespondUnknownRoute(t *testing.T) {
	e := echo.New()
	rs := hal.NewResponder()
	router := hal.NewRouter(NewRoutes(e))
	cfg := &hal.Config{Links: map[string]hal.LinkDescriptor{
		"boss": router.Href("missing"),
	}}
	e.GET("/x", func(c echo.Context) error {
		return Respond(c, rs, person{ID: "1"}, cfg)
	})

	rec := get(e, "/x", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMountDocs(t *testing.T) {
	e, _ := newServer(t)

	rec := get(e, "/rels/mycompany/company", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mco:company")

	rec = get(e, "/rels", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMountAPIRoot(t *testing.T) {
	e := echo.New()
	routes, err := hal.NewRouteTable(hal.Route{ID: "person", Path: "/people/{id}", Config: &hal.Config{API: "person"}})
	require.NoError(t, err)
	MountAPIRoot(e, hal.NewResponder(hal.WithRoutes(routes)), "/")

	rec := get(e, "/", "application/hal+json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"_links":{"self":{"href":"/"},"person":{"href":"/people/{id}","templated":true}}}`, rec.Body.String())
}

func TestRoutesLookup(t *testing.T) {
	e := echo.New()
	e.GET("/people/:id/friends/:friendId", func(echo.Context) error { return nil }).Name = "friend"
	e.GET("/files/*", func(echo.Context) error { return nil }).Name = "file"

	routes := NewRoutes(e)

	path, ok := routes.LookupRouteByID("friend")
	require.True(t, ok)
	assert.Equal(t, "/people/{id}/friends/{friendId}", path)

	path, ok = routes.LookupRouteByID("file")
	require.True(t, ok)
	assert.Equal(t, "/files/{+path}", path)

	_, ok = routes.LookupRouteByID("missing")
	assert.False(t, ok)
}

func TestTemplate(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/", "/"},
		{"/people", "/people"},
		{"/people/:id", "/people/{id}"},
		{"/a/:b/c/*", "/a/{b}/c/{+path}"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Template(tt.in), tt.in)
	}
}
