// Package docs serves human-readable documentation for registered rels.
// CURIE links point here: a client following "mco:boss" through the
// curie href "/rels/mycompany/{rel}" lands on the page for boss.
//
//	mux.Handle("/rels/", docs.NewHandler(hal.DefaultRegistry()))
//
// Pages:
//
//	GET /rels/             namespace index
//	GET /rels/{ns}         rels of one namespace
//	GET /rels/{ns}/{rel}   one rel, its markdown document rendered to HTML
package docs

//go:generate templ generate

import (
	"bytes"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/a-h/templ"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/pthm/hal"
	"github.com/pthm/hal/lib/reldoc"
)

// Option configures a Handler.
type Option func(*options)

type options struct {
	base   string
	title  string
	logger *slog.Logger
}

// WithBase sets the path the handler is mounted at. Defaults to
// hal.DefaultRelsPath; it must match the factory's rels path.
func WithBase(base string) Option {
	return func(o *options) {
		o.base = base
	}
}

// WithTitle sets the title shown on every page.
func WithTitle(title string) Option {
	return func(o *options) {
		o.title = title
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Handler renders rel documentation pages from a registry.
type Handler struct {
	reg    *hal.Registry
	base   string
	title  string
	md     goldmark.Markdown
	mux    *http.ServeMux
	logger *slog.Logger
}

// NewHandler creates a documentation handler for reg.
func NewHandler(reg *hal.Registry, opts ...Option) *Handler {
	o := &options{base: hal.DefaultRelsPath, title: "Link relations", logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	base := "/" + strings.Trim(o.base, "/")
	if base == "/" {
		base = ""
	}

	h := &Handler{
		reg:    reg,
		base:   base,
		title:  o.title,
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		mux:    http.NewServeMux(),
		logger: o.logger,
	}
	h.mux.HandleFunc("GET "+base+"/{$}", h.index)
	if base != "" {
		h.mux.HandleFunc("GET "+base, h.index)
	}
	h.mux.HandleFunc("GET "+base+"/{ns}", h.namespace)
	h.mux.HandleFunc("GET "+base+"/{ns}/{rel}", h.rel)
	return h
}

// Base returns the path the handler serves, without a trailing slash.
func (h *Handler) Base() string {
	return h.base
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, page(h.title, indexView(h.base, h.reg.Namespaces())))
}

func (h *Handler) namespace(w http.ResponseWriter, r *http.Request) {
	ns, ok := h.reg.FindNamespace(r.PathValue("ns"))
	if !ok {
		h.notFound(w, r)
		return
	}
	h.render(w, r, http.StatusOK, page(h.title+" · "+ns.Name, namespaceView(h.base, ns, ns.Rels())))
}

func (h *Handler) rel(w http.ResponseWriter, r *http.Request) {
	ns, ok := h.reg.FindNamespace(r.PathValue("ns"))
	if !ok {
		h.notFound(w, r)
		return
	}
	rel, ok := ns.Rel(r.PathValue("rel"))
	if !ok {
		h.notFound(w, r)
		return
	}

	body, err := h.relBody(rel)
	if err != nil {
		h.logger.Error("rendering rel document", "error", err, "rel", rel.QName(), "file", rel.File)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, http.StatusOK, page(h.title+" · "+rel.QName(), relView(h.base, ns, rel, body)))
}

// relBody renders the rel's markdown document, if it has one, to HTML.
func (h *Handler) relBody(rel *hal.Rel) (string, error) {
	if rel.File == "" {
		return "", nil
	}
	data, err := os.ReadFile(rel.File)
	if err != nil {
		return "", err
	}
	doc, err := reldoc.Parse(rel.File, data)
	if err != nil {
		return "", err
	}
	return h.Markdown(doc.Body)
}

// Markdown renders markdown source to HTML.
func (h *Handler) Markdown(src []byte) (string, error) {
	var buf bytes.Buffer
	if err := h.md.Convert(src, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, page(h.title, notFoundView(h.base, r.URL.Path)))
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	var buf bytes.Buffer
	if err := c.Render(r.Context(), &buf); err != nil {
		h.logger.Error("rendering docs page", "error", err, "path", r.URL.Path)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
