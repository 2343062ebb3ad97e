package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pthm/hal"
	"github.com/pthm/hal/docs"
	"github.com/pthm/hal/lib/routeconfig"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve rel documentation, the API root and fixture documents",
		Long: `Serve starts an HTTP server with:

  /                  the API root document linking every route with an api rel
  <rels-path>/...    HTML documentation of every namespace and rel
  /metrics           Prometheus metrics
  <route paths>      HAL documents of JSON fixtures, when --fixtures is set

A request for /people/1 is answered with <fixtures>/people/1.json rendered
through the config of the matching route.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd)
		},
	}
	f := cmd.Flags()
	f.String("addr", ":8080", "listen address")
	f.String("fixtures", "", "directory of JSON fixtures to serve route documents from")
	f.Bool("watch", false, "reload rel documents when their files change")
	f.Bool("absolute", false, "emit absolute hrefs")
	f.Bool("require-hal-accept", false, "serve plain JSON unless the client accepts a HAL media type")
	for _, name := range []string{"addr", "fixtures", "watch", "absolute", "require-hal-accept"} {
		_ = a.v.BindPFlag(name, f.Lookup(name))
	}
	return cmd
}

func (a *app) serve(cmd *cobra.Command) error {
	f, reg, err := a.load()
	if err != nil {
		return err
	}
	handler, err := a.handler(f, reg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              a.v.GetString("addr"),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("serving", "addr", srv.Addr, "rels", a.v.GetString("rels-path"))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if a.v.GetBool("watch") {
		for _, ns := range reg.Namespaces() {
			if ns.Dir == "" {
				continue
			}
			g.Go(func() error {
				if err := reg.WatchRels(gctx, ns, 0); !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			})
		}
	}

	err = g.Wait()
	a.logger.Info("server stopped")
	return err
}

// handler builds the server's routes.
func (a *app) handler(f *routeconfig.File, reg *hal.Registry) (http.Handler, error) {
	routes, err := f.RouteTable()
	if err != nil {
		return nil, err
	}

	promReg := prometheus.NewRegistry()
	metrics, err := hal.NewMetrics(promReg)
	if err != nil {
		return nil, err
	}

	rs := hal.NewResponder(
		hal.WithFactory(a.factory(reg)),
		hal.WithRoutes(routes),
		hal.WithMetrics(metrics),
		hal.WithAbsoluteHrefs(a.v.GetBool("absolute")),
		hal.WithRequireHALAccept(a.v.GetBool("require-hal-accept")),
		hal.WithResponderLogger(a.logger),
		hal.WithErrorHandler(a.writeError),
	)

	mux := http.NewServeMux()
	mux.Handle("GET /{$}", rs.APIRootHandler())
	mux.Handle("GET /metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{EnableOpenMetrics: true}))

	relDocs := docs.NewHandler(reg, docs.WithBase(a.v.GetString("rels-path")), docs.WithLogger(a.logger))
	if base := relDocs.Base(); base != "" {
		mux.Handle(base, relDocs)
	}
	mux.Handle(relDocs.Base()+"/", relDocs)

	if dir := a.v.GetString("fixtures"); dir != "" {
		for _, route := range routes.Routes() {
			pattern, ok := muxPattern(route)
			if !ok {
				a.logger.Warn("route path cannot be served from fixtures", "route", route.ID, "path", route.Path)
				continue
			}
			if err := handle(mux, pattern, rs.Handler(route, fixture(dir))); err != nil {
				return nil, fmt.Errorf("route %s: %w", route.ID, err)
			}
		}
	}
	return mux, nil
}

// fixture loads the JSON file mirroring the request path.
func fixture(dir string) hal.FetchFunc {
	return func(r *http.Request) (any, error) {
		name := filepath.Join(dir, filepath.FromSlash(strings.Trim(r.URL.Path, "/"))+".json")
		data, err := os.ReadFile(name)
		if err != nil {
			return nil, err
		}
		return hal.Decode(data)
	}
}

func (a *app) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, fs.ErrNotExist) || hal.IsNotFound(err) {
		status = http.StatusNotFound
	}
	a.logger.Warn("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	http.Error(w, http.StatusText(status), status)
}

// muxPattern converts a route to a ServeMux pattern. Only paths whose
// template expressions are plain variables can be served.
func muxPattern(route *hal.Route) (string, bool) {
	path := route.Path
	for {
		i := strings.Index(path, "{")
		if i < 0 {
			break
		}
		j := strings.Index(path[i:], "}")
		if j < 0 {
			return "", false
		}
		expr := path[i+1 : i+j]
		if expr == "" || strings.ContainsAny(expr, "+#./;?&,*:") {
			return "", false
		}
		path = path[i+j+1:]
	}
	return route.Method + " " + route.Path, true
}

// handle registers h, reporting conflicting patterns as errors.
func handle(mux *http.ServeMux, pattern string, h http.Handler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("registering %q: %v", pattern, r)
		}
	}()
	mux.Handle(pattern, h)
	return nil
}
