package hal

import (
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// DefaultRelsPath is where CURIE hrefs point unless WithRelsPath says
// otherwise. The docs package serves rel pages under it.
const DefaultRelsPath = "/rels"

const instrumentationName = "github.com/pthm/hal"

// Factory creates representations. Every representation remembers the
// factory that made it and uses it again for embedded children.
type Factory struct {
	registry *Registry
	relsPath string
	strict   bool
	logger   *slog.Logger
	tracer   trace.Tracer
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithRegistry makes the factory resolve rels in reg instead of the
// process-wide registry.
func WithRegistry(reg *Registry) FactoryOption {
	return func(f *Factory) {
		f.registry = reg
	}
}

// WithRelsPath sets the base path of CURIE hrefs. Defaults to "/rels".
func WithRelsPath(path string) FactoryOption {
	return func(f *Factory) {
		f.relsPath = path
	}
}

// WithStrictRels makes Link and Embed fail with UnknownRelError for rels
// that are missing from an existing namespace instead of creating them.
func WithStrictRels(strict bool) FactoryOption {
	return func(f *Factory) {
		f.strict = strict
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithTracer sets the tracer used by Configure. Defaults to the global
// OpenTelemetry tracer provider.
func WithTracer(tracer trace.Tracer) FactoryOption {
	return func(f *Factory) {
		f.tracer = tracer
	}
}

// NewFactory creates a factory.
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{relsPath: DefaultRelsPath}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	if f.tracer == nil {
		f.tracer = otel.Tracer(instrumentationName)
	}
	return f
}

// Registry returns the registry the factory resolves rels in.
func (f *Factory) Registry() *Registry {
	if f.registry != nil {
		return f.registry
	}
	return DefaultRegistry()
}

// Logger returns the factory's logger.
func (f *Factory) Logger() *slog.Logger {
	return f.logger
}

// Create builds a root representation of entity whose self link is self.
// The self href is used as given; it is not resolved or expanded.
func (f *Factory) Create(entity any, self LinkDescriptor) (*Representation, error) {
	l, err := ResolveLink(self, "")
	if err != nil {
		return nil, err
	}
	rep := f.newRepresentation(entity, l, &curieSet{}, true)
	if l.HrefFunc != nil {
		href, err := l.HrefFunc(rep, entity)
		if err != nil {
			return nil, &HookError{Hook: "self href", Err: err}
		}
		if href == "" {
			return nil, configErrorf("self link", "href is required")
		}
		l.Href, l.HrefFunc = href, nil
	}
	return rep, nil
}

// MustCreate is like Create but panics on error.
func (f *Factory) MustCreate(entity any, self LinkDescriptor) *Representation {
	rep, err := f.Create(entity, self)
	if err != nil {
		panic(err)
	}
	return rep
}

func (f *Factory) newRepresentation(entity any, self *Link, curies *curieSet, root bool) *Representation {
	rep := &Representation{
		self:     self,
		entity:   entity,
		factory:  f,
		curies:   curies,
		root:     root,
		links:    newRelMap[*Link](),
		embedded: newRelMap[*Representation](),
		props:    NewDocument(),
		ignored:  make(map[string]struct{}),
	}
	rep.links.add("self", self)
	return rep
}
