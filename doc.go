// Package hal turns plain Go values into HAL (Hypertext Application
// Language) documents: JSON objects carrying a reserved `_links` map of
// link relations and an optional `_embedded` map of nested documents.
//
// # Core Concepts
//
// A Representation wraps an entity, its self link, the links and embedded
// representations added to it, and the properties to leave out. It is
// serialized with the entity's own JSON (honoring custom MarshalJSON
// methods) as the document body:
//
//	f := hal.NewFactory(hal.WithRegistry(reg))
//	rep := f.MustCreate(person, hal.Href("/people/1"))
//	rep.Link("mco:company", hal.Href("/companies/{companyId}"))
//	data, _ := json.Marshal(rep)
//
// Links are described by a LinkDescriptor: a literal Href, a computed
// HrefFunc, a full Link object, or Links to force an array. Relative hrefs
// resolve against the self href; URI templates (RFC 6570) expand against
// the entity, with dotted variables such as {company.id} walking nested
// values.
//
// A rel holding a single link serializes as an object; a second link under
// the same rel turns it into an array. The same rule applies to embedded
// representations, except EmbedCollection, which always yields an array.
//
// # Namespaces and CURIEs
//
// A Registry groups rels under namespaces with a CURIE prefix. Using a
// prefixed rel such as "mco:boss" declares the namespace once in the root
// document's `_links.curies`, pointing at the documentation served by the
// docs package:
//
//	reg := hal.NewRegistry()
//	reg.MustAddNamespace(hal.NamespaceOptions{Name: "mycompany", Prefix: "mco", Dir: "rels/mycompany"})
//
// With WithStrictRels, unknown rels in a known namespace are errors;
// otherwise they are registered on first use.
//
// # Declarative Configuration
//
// Routes describe their documents with a Config instead of building each
// representation by hand:
//
//	cfg := &hal.Config{
//	    Links: map[string]hal.LinkDescriptor{
//	        "mco:company": hal.Href("/companies/{companyId}"),
//	    },
//	    Embedded: map[string]*hal.EmbedConfig{
//	        "mco:boss": {Path: "boss", Href: hal.Href("/people/{item.id}")},
//	    },
//	    Ignore: []string{"password"},
//	}
//	rep, err := hal.Configure(ctx, rep, cfg)
//
// Configure validates the whole Config before touching the representation,
// then applies links, embedded rels, ignores, the entity's ToHal hook and
// the Config's Prepare hook, in that order. Embedded items are configured
// concurrently; the output order does not depend on scheduling.
//
// # Serving
//
// A Responder negotiates between application/hal+json,
// application/hal+msgpack and application/json, builds the representation
// for the request URL and writes it in one piece:
//
//	rs := hal.NewResponder(hal.WithRoutes(routes))
//	mux.Handle("GET /people/{id}", rs.Handler(route, fetchPerson))
//	mux.Handle("GET /{$}", rs.APIRootHandler())
//
// TestConfigure and TestRequest build documents without a server and
// return a TestResult with assertion helpers for tests.
package hal
