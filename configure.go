package hal

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/pthm/hal/lib/pathvar"
)

// Span and attribute names recorded by Configure.
const (
	SpanConfigure = "hal.configure"
	SpanEmbed     = "hal.embed"

	AttrSelf = "hal.self"
	AttrRel  = "hal.rel"
)

// Configure applies cfg to rep and returns the finished representation,
// which is rep itself unless a hook replaced it. The steps run in order:
//
//  1. declared links, in rel order
//  2. embedded rels; every embedded item is configured concurrently with
//     its rel's nested config
//  3. ignored properties
//  4. the entity's ToHal hook, then cfg.Prepare
//
// cfg is validated up front, so a malformed config never touches rep. The
// first error from any step or any embedded branch aborts the whole call
// and cancels the remaining branches.
func Configure(ctx context.Context, rep *Representation, cfg *Config) (*Representation, error) {
	ctx, span := rep.factory.tracer.Start(ctx, SpanConfigure,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String(AttrSelf, rep.self.Href)),
	)
	defer span.End()

	out, err := func() (*Representation, error) {
		if err := validateConfig(cfg); err != nil {
			return nil, err
		}
		return configure(ctx, rep, cfg)
	}()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	return out, nil
}

func configure(ctx context.Context, rep *Representation, cfg *Config) (*Representation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = &Config{}
	}

	if err := applyLinks(rep, cfg); err != nil {
		return nil, err
	}
	if err := applyEmbedded(ctx, rep, cfg); err != nil {
		return nil, err
	}
	rep.Ignore(cfg.Ignore...)
	return runHooks(ctx, rep, cfg)
}

func applyLinks(rep *Representation, cfg *Config) error {
	for _, rel := range sortedKeys(cfg.Links) {
		desc, err := configLink(rep, cfg.Links[rel], cfg.Query)
		if err != nil {
			return fmt.Errorf("link %q: %w", rel, err)
		}
		if err := rep.Link(rel, desc); err != nil {
			return err
		}
	}
	return nil
}

// configLink resolves a declared link the same way Link does, so relative
// paths are joined before template variables are expanded, then appends the
// route query.
func configLink(rep *Representation, desc LinkDescriptor, query string) (LinkDescriptor, error) {
	if list, ok := desc.(Links); ok {
		out := make(Links, 0, len(list))
		for _, d := range list {
			l, err := configLink(rep, d, query)
			if err != nil {
				return nil, err
			}
			out = append(out, l)
		}
		return out, nil
	}

	l, err := rep.resolveLink(desc, rep.entity)
	if err != nil {
		return nil, err
	}
	if query != "" {
		l.Href += query
		l.Templated = true
	}
	return *l, nil
}

type embedJob struct {
	rel   string
	cfg   *EmbedConfig
	child *Representation
}

func applyEmbedded(ctx context.Context, rep *Representation, cfg *Config) error {
	if len(cfg.Embedded) == 0 {
		return nil
	}

	// Children are created in rel order on this goroutine so the document
	// layout does not depend on scheduling; only their configuration fans out.
	var jobs []embedJob
	for _, rel := range sortedKeys(cfg.Embedded) {
		ec := cfg.Embedded[rel]
		value, key, ok := pathvar.Resolve(rep.entity, ec.Path)
		if !ok {
			rep.Ignore(ec.Path)
			continue
		}
		rep.Ignore(key)

		var children []*Representation
		if isSlice(value) {
			var err error
			if children, err = rep.EmbedCollection(rel, ec.Href, value); err != nil {
				return err
			}
		} else {
			child, err := rep.Embed(rel, ec.Href, value)
			if err != nil {
				return err
			}
			children = []*Representation{child}
		}
		for _, child := range children {
			jobs = append(jobs, embedJob{rel: rel, cfg: ec, child: child})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, job := range jobs {
		g.Go(func() error {
			out, err := configureEmbedded(gctx, rep, job)
			if err != nil {
				return err
			}
			if out != job.child {
				out.adopt(rep.curies)
				rep.replaceEmbedded(job.child, out)
			}
			return nil
		})
	}
	return g.Wait()
}

func configureEmbedded(ctx context.Context, parent *Representation, job embedJob) (*Representation, error) {
	ctx, span := parent.factory.tracer.Start(ctx, SpanEmbed,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String(AttrRel, job.rel),
			attribute.String(AttrSelf, job.child.self.Href),
		),
	)
	defer span.End()

	out, err := configure(ctx, job.child, &job.cfg.Config)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("embedded %q: %w", job.rel, err)
	}
	return out, nil
}

func runHooks(ctx context.Context, rep *Representation, cfg *Config) (*Representation, error) {
	if r, ok := rep.entity.(Representer); ok {
		out, err := callHook(ctx, "entity", r.ToHal, rep)
		if err != nil {
			return nil, err
		}
		rep = out
	}
	if cfg.Prepare != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := callHook(ctx, "prepare", cfg.Prepare, rep)
		if err != nil {
			return nil, err
		}
		rep = out
	}
	return rep, nil
}

func callHook(ctx context.Context, name string, fn PrepareFunc, rep *Representation) (out *Representation, err error) {
	defer func() {
		if p := recover(); p != nil {
			out, err = nil, &HookError{Hook: name, Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	out, err = fn(ctx, rep)
	if err != nil {
		return nil, &HookError{Hook: name, Err: err}
	}
	if out == nil {
		return rep, nil
	}
	return out, nil
}

// adopt moves r and its embedded subtree into the CURIE set of the tree it
// is being grafted onto.
func (r *Representation) adopt(curies *curieSet) {
	if r.curies == curies {
		return
	}
	r.curies.mu.Lock()
	seen := make([]*Namespace, 0, len(r.curies.seen))
	for _, ns := range r.curies.seen {
		seen = append(seen, ns)
	}
	r.curies.mu.Unlock()
	for _, ns := range seen {
		curies.declare(ns)
	}

	r.mu.Lock()
	r.curies = curies
	r.root = false
	var children []*Representation
	for _, s := range r.embedded.slots {
		children = append(children, s.items...)
	}
	r.mu.Unlock()

	for _, child := range children {
		child.adopt(curies)
	}
}
