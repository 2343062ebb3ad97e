package hal

import (
	"bytes"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/pthm/hal/lib/encoding"
)

// ErrorHandler writes the response for a request whose document could not
// be produced. Nothing has been written to w when it is called.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// FetchFunc loads the entity a route responds with.
type FetchFunc func(r *http.Request) (any, error)

// Responder turns handler results into HAL documents. For every request it
// decides between a HAL and a plain response, builds the self URL from the
// request, runs Configure and writes the document in the negotiated media
// type. A failed document is never written partially.
type Responder struct {
	factory    *Factory
	routes     *RouteTable
	requireHAL bool
	absolute   bool
	indent     string
	metrics    *Metrics
	logger     *slog.Logger
	onError    ErrorHandler
}

// ResponderOption configures a Responder.
type ResponderOption func(*Responder)

// WithFactory sets the factory representations are created with.
func WithFactory(f *Factory) ResponderOption {
	return func(rs *Responder) {
		rs.factory = f
	}
}

// WithRoutes sets the routes linked from the API root document.
func WithRoutes(routes *RouteTable) ResponderOption {
	return func(rs *Responder) {
		rs.routes = routes
	}
}

// WithRequireHALAccept serves HAL only to clients whose Accept header names
// a HAL media type. Other clients get the bare entity as JSON. By default
// every client that does not insist on another type gets HAL.
func WithRequireHALAccept(require bool) ResponderOption {
	return func(rs *Responder) {
		rs.requireHAL = require
	}
}

// WithAbsoluteHrefs makes self URLs, and the links resolved against them,
// absolute.
func WithAbsoluteHrefs(absolute bool) ResponderOption {
	return func(rs *Responder) {
		rs.absolute = absolute
	}
}

// WithIndent indents JSON output.
func WithIndent(indent string) ResponderOption {
	return func(rs *Responder) {
		rs.indent = indent
	}
}

// WithMetrics records response metrics.
func WithMetrics(m *Metrics) ResponderOption {
	return func(rs *Responder) {
		rs.metrics = m
	}
}

// WithResponderLogger sets the logger. Defaults to the factory's logger.
func WithResponderLogger(logger *slog.Logger) ResponderOption {
	return func(rs *Responder) {
		rs.logger = logger
	}
}

// WithErrorHandler replaces the default error handler, which answers 404
// for unknown routes and 500 for everything else.
func WithErrorHandler(h ErrorHandler) ResponderOption {
	return func(rs *Responder) {
		rs.onError = h
	}
}

// NewResponder creates a responder.
func NewResponder(opts ...ResponderOption) *Responder {
	rs := &Responder{}
	for _, opt := range opts {
		opt(rs)
	}
	if rs.factory == nil {
		rs.factory = NewFactory()
	}
	if rs.logger == nil {
		rs.logger = rs.factory.Logger()
	}
	if rs.onError == nil {
		rs.onError = rs.defaultError
	}
	return rs
}

// Factory returns the responder's factory.
func (rs *Responder) Factory() *Factory {
	return rs.factory
}

// Represent builds and configures the representation of entity for r. An
// entity that already is a *Representation is returned unchanged.
func (rs *Responder) Represent(r *http.Request, entity any, cfg *Config) (*Representation, error) {
	if rep, ok := entity.(*Representation); ok {
		return rep, nil
	}

	rep, err := rs.factory.Create(entity, Href(SelfURL(r, rs.absolute)))
	if err != nil {
		return nil, err
	}

	start := time.Now()
	out, err := Configure(r.Context(), rep, cfg)
	rs.metrics.observeConfigure(routeLabel(cfg), start)
	return out, err
}

// Write negotiates the media type and writes entity with status. On error
// nothing has been written.
func (rs *Responder) Write(w http.ResponseWriter, r *http.Request, status int, entity any, cfg *Config) error {
	codec, hal := rs.negotiate(r)

	var body any = entity
	if hal {
		rep, err := rs.Represent(r, entity, cfg)
		if err != nil {
			return err
		}
		body = rep
	}

	var buf bytes.Buffer
	if err := codec.Encode(&buf, body); err != nil {
		return err
	}

	h := w.Header()
	h.Set("Content-Type", codec.MediaType())
	h.Set("Content-Length", strconv.Itoa(buf.Len()))
	h.Add("Vary", "Accept")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		rs.logger.Debug("writing response", "error", err, "path", r.URL.Path)
	}
	rs.metrics.document(codec.MediaType())
	return nil
}

// Respond writes entity with status 200, handing failures to the error
// handler.
func (rs *Responder) Respond(w http.ResponseWriter, r *http.Request, entity any, cfg *Config) {
	rs.RespondStatus(w, r, http.StatusOK, entity, cfg)
}

// RespondStatus is Respond with an explicit status code.
func (rs *Responder) RespondStatus(w http.ResponseWriter, r *http.Request, status int, entity any, cfg *Config) {
	if err := rs.Write(w, r, status, entity, cfg); err != nil {
		rs.fail(w, r, err)
	}
}

// Handler serves route with the entity returned by fetch.
//
//	mux.Handle("GET /people/{id}", rs.Handler(route, func(r *http.Request) (any, error) {
//	    return store.Person(r.PathValue("id"))
//	}))
func (rs *Responder) Handler(route *Route, fetch FetchFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entity, err := fetch(r)
		if err != nil {
			rs.fail(w, r, err)
			return
		}
		rs.Respond(w, r, entity, route.Config)
	})
}

// APIRoot builds the API root document: one link per route whose config
// names an API rel, in route order. Templated paths are marked templated.
func (rs *Responder) APIRoot(r *http.Request) (*Representation, error) {
	rep, err := rs.factory.Create(nil, Href(SelfURL(r, rs.absolute)))
	if err != nil {
		return nil, err
	}
	if rs.routes == nil {
		return rep, nil
	}
	for _, route := range rs.routes.APIRoutes() {
		l := Link{Href: route.Path, Templated: isTemplate(route.Path)}
		if rs.absolute {
			l.Href = RequestScheme(r) + "://" + r.Host + l.Href
		}
		if err := rep.Link(route.Config.API, l); err != nil {
			return nil, err
		}
	}
	return rep, nil
}

// APIRootHandler serves the API root document.
func (rs *Responder) APIRootHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rep, err := rs.APIRoot(r)
		if err != nil {
			rs.fail(w, r, err)
			return
		}
		rs.Respond(w, r, rep, nil)
	})
}

// negotiate picks the codec for r and reports whether the response is HAL.
// With requireHAL set, only clients that name a HAL media type get one;
// wildcards and an empty Accept header get plain JSON.
func (rs *Responder) negotiate(r *http.Request) (encoding.Codec, bool) {
	halJSON, plain := encoding.HALJSON, encoding.JSON
	if rs.indent != "" {
		halJSON = encoding.JSONCodec{Type: encoding.MediaTypeHALJSON, Indent: rs.indent}
		plain = encoding.JSONCodec{Type: encoding.MediaTypeJSON, Indent: rs.indent}
	}
	if rs.requireHAL && !WantsHAL(r) {
		return plain, false
	}

	accept := r.Header.Get("Accept")
	codec, ok := encoding.Negotiate(accept, halJSON, encoding.HALMsgpack, plain)
	switch {
	case ok && encoding.IsHAL(codec):
		rs.logger.Debug("negotiated media type", "accept", accept, "media_type", codec.MediaType())
		return codec, true
	case rs.requireHAL:
		return plain, false
	default:
		return halJSON, true
	}
}

func (rs *Responder) fail(w http.ResponseWriter, r *http.Request, err error) {
	rs.metrics.failure(err)
	rs.onError(w, r, err)
}

func (rs *Responder) defaultError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	if IsNotFound(err) {
		status = http.StatusNotFound
	}
	rs.logger.Error("hal response failed",
		"error", err,
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
	)
	http.Error(w, http.StatusText(status), status)
}

func routeLabel(cfg *Config) string {
	if cfg == nil || cfg.Name == "" {
		return "unnamed"
	}
	return cfg.Name
}
