// Command example serves a small people directory as HAL documents.
//
//	go run . &
//	curl -H 'Accept: application/hal+json' localhost:8080/companies/1
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/pthm/hal"
	"github.com/pthm/hal/docs"
)

// ToHal links a person to their boss.
func (p *Person) ToHal(_ context.Context, rep *hal.Representation) (*hal.Representation, error) {
	if p.BossID == "" {
		return nil, nil
	}
	return nil, rep.Link("mco:boss", hal.Href("/people/"+p.BossID))
}

var personLinks = map[string]hal.LinkDescriptor{
	"mco:company": hal.Href("/companies/{companyId}"),
}

var (
	personRoute = hal.Route{
		ID:   "person",
		Path: "/people/{id}",
		Config: &hal.Config{
			API:    "mco:person",
			Links:  personLinks,
			Ignore: []string{"bossId"},
		},
	}
	companyRoute = hal.Route{
		ID:   "company",
		Path: "/companies/{id}",
		Config: &hal.Config{
			API: "mco:company",
			Embedded: map[string]*hal.EmbedConfig{
				"mco:employee": {
					Path:   "employees",
					Href:   hal.Href("/people/{item.id}"),
					Config: hal.Config{Ignore: []string{"companyId", "bossId"}},
				},
			},
		},
	}
	searchRoute = hal.Route{
		ID:   "search",
		Path: "/people{?q}",
		Config: &hal.Config{
			API: "mco:search",
			Embedded: map[string]*hal.EmbedConfig{
				"mco:person": {
					Path:   "people",
					Href:   hal.Href("/people/{item.id}"),
					Config: hal.Config{Links: personLinks, Ignore: []string{"bossId"}},
				},
			},
		},
	}
)

func newRegistry() *hal.Registry {
	reg := hal.NewRegistry()
	reg.MustAddNamespace(hal.NamespaceOptions{
		Name:        "mycompany",
		Prefix:      "mco",
		Description: "People and the companies they work for.",
		Rels: []hal.RelOptions{
			{Name: "person", Description: "A person."},
			{Name: "company", Description: "The company a person works for."},
			{Name: "employee", Description: "A person employed by the company."},
			{Name: "boss", Description: "The person this person reports to."},
			{Name: "search", Description: "Search people by name."},
		},
	})
	return reg
}

func newServer(store *Store, logger *slog.Logger) (http.Handler, error) {
	reg := newRegistry()
	routes, err := hal.NewRouteTable(personRoute, companyRoute, searchRoute)
	if err != nil {
		return nil, err
	}

	rs := hal.NewResponder(
		hal.WithFactory(hal.NewFactory(hal.WithRegistry(reg), hal.WithStrictRels(true), hal.WithLogger(logger))),
		hal.WithRoutes(routes),
		hal.WithResponderLogger(logger),
		hal.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			if errors.Is(err, errNotFound) {
				http.NotFound(w, r)
				return
			}
			logger.Error("request failed", "path", r.URL.Path, "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}),
	)

	mux := http.NewServeMux()
	mux.Handle("GET /{$}", rs.APIRootHandler())
	mux.Handle("GET /people/{id}", rs.Handler(&personRoute, func(r *http.Request) (any, error) {
		return store.Person(r.PathValue("id"))
	}))
	mux.Handle("GET /companies/{id}", rs.Handler(&companyRoute, func(r *http.Request) (any, error) {
		return store.Company(r.PathValue("id"))
	}))
	mux.Handle("GET /people", rs.Handler(&searchRoute, func(r *http.Request) (any, error) {
		return store.Search(r.URL.Query().Get("q")), nil
	}))
	mux.Handle("/rels/", docs.NewHandler(reg, docs.WithLogger(logger)))
	return mux, nil
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	handler, err := newServer(NewStore(), logger)
	if err != nil {
		logger.Error("building server", "error", err)
		os.Exit(1)
	}

	addr := ":8080"
	logger.Info("starting server", "addr", "http://localhost"+addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
