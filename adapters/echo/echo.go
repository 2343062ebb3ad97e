// Package halecho provides Echo framework integration for hal responders.
//
// Serve HAL documents from Echo handlers:
//
//	e := echo.New()
//	rs := hal.NewResponder(hal.WithRoutes(routes))
//	e.GET("/people/:id", halecho.Handler(rs, personConfig, func(c echo.Context) (any, error) {
//	    return store.Person(c.Param("id"))
//	})).Name = "person"
//
// Mount the rel documentation and the API root:
//
//	halecho.MountDocs(e, reg)
//	halecho.MountAPIRoot(e, rs, "/")
package halecho

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/pthm/hal"
	"github.com/pthm/hal/docs"
)

// FetchFunc loads the entity an Echo handler represents.
type FetchFunc func(c echo.Context) (any, error)

// Respond writes entity as a HAL document with status 200. Failures are
// returned so Echo's HTTPErrorHandler can render them; nothing has been
// written when an error is returned.
//
//	func handler(c echo.Context) error {
//	    return halecho.Respond(c, rs, person, personConfig)
//	}
func Respond(c echo.Context, rs *hal.Responder, entity any, cfg *hal.Config) error {
	return RespondStatus(c, rs, http.StatusOK, entity, cfg)
}

// RespondStatus is Respond with an explicit status code.
func RespondStatus(c echo.Context, rs *hal.Responder, status int, entity any, cfg *hal.Config) error {
	err := rs.Write(c.Response(), c.Request(), status, entity, cfg)
	if err == nil {
		return nil
	}
	if hal.IsNotFound(err) {
		return echo.NewHTTPError(http.StatusNotFound).SetInternal(err)
	}
	return err
}

// Handler returns an Echo handler serving the entity returned by fetch.
func Handler(rs *hal.Responder, cfg *hal.Config, fetch FetchFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		entity, err := fetch(c)
		if err != nil {
			return err
		}
		return Respond(c, rs, entity, cfg)
	}
}

// MountDocs serves the rel documentation of reg. The base path defaults to
// hal.DefaultRelsPath and can be changed with docs.WithBase.
func MountDocs(e *echo.Echo, reg *hal.Registry, opts ...docs.Option) *docs.Handler {
	h := docs.NewHandler(reg, opts...)
	base := strings.TrimSuffix(h.Base(), "/")
	handler := echo.WrapHandler(h)
	e.GET(base, handler)
	e.GET(base+"/*", handler)
	return h
}

// MountAPIRoot serves the responder's API root document at path.
func MountAPIRoot(e *echo.Echo, rs *hal.Responder, path string) {
	e.GET(path, echo.WrapHandler(rs.APIRootHandler()))
}

// Routes looks up named Echo routes for hal.Router. Echo path parameters
// are translated to URI template variables: "/people/:id" becomes
// "/people/{id}" and a trailing "*" becomes "{+path}".
type Routes struct {
	e *echo.Echo
}

// NewRoutes creates a route lookup over e. Routes added to e later are
// found too.
func NewRoutes(e *echo.Echo) *Routes {
	return &Routes{e: e}
}

// LookupRouteByID implements hal.RouteLookup using route names.
func (r *Routes) LookupRouteByID(id string) (string, bool) {
	for _, route := range r.e.Routes() {
		if route.Name == id {
			return Template(route.Path), true
		}
	}
	return "", false
}

// Template converts an Echo route path to a URI template.
func Template(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		switch {
		case strings.HasPrefix(seg, ":"):
			segments[i] = "{" + seg[1:] + "}"
		case seg == "*":
			segments[i] = "{+path}"
		}
	}
	return strings.Join(segments, "/")
}
