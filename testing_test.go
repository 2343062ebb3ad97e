package hal

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

type ctxKey struct{}

func TestTestConfigure_Success(t *testing.T) {
	reg := NewRegistry()
	reg.MustAddNamespace(NamespaceOptions{Name: "mycompany", Prefix: "mco"})

	result, err := TestConfigure(acme(), "/companies/1", &Config{
		Links: map[string]LinkDescriptor{
			"mco:employees": Href("./employees"),
			"mco:related":   Links{Href("/companies/2"), Href("/companies/3")},
			"mco:none":      Links{},
		},
		Embedded: map[string]*EmbedConfig{
			"mco:employee": {Path: "employees", Href: Href("./employees/{item.id}")},
		},
	}, WithRegistry(reg))
	if err != nil {
		t.Fatalf("TestConfigure failed: %v", err)
	}

	if result.Rep == nil {
		t.Fatal("expected representation")
	}
	if !result.IsOK() {
		t.Errorf("expected 200, got %d", result.StatusCode)
	}
	if got := result.SelfHref(); got != "/companies/1" {
		t.Errorf("SelfHref() = %q", got)
	}
	if got := result.LinkHref("mco:employees"); got != "/companies/1/employees" {
		t.Errorf("LinkHref() = %q", got)
	}
	if got := result.LinkHrefs("mco:related"); len(got) != 2 || got[1] != "/companies/3" {
		t.Errorf("LinkHrefs() = %v", got)
	}
	if !result.HasLink("mco:none") {
		t.Error("empty link array should count as present")
	}
	if result.HasLink("mco:missing") {
		t.Error("unexpected link")
	}
	if got := result.Curies(); len(got) != 1 || got[0] != "mco" {
		t.Errorf("Curies() = %v", got)
	}

	employees := result.Embedded("mco:employee")
	if len(employees) != 1 || employees[0]["firstName"] != "Bob" {
		t.Errorf("Embedded() = %v", employees)
	}
	if name, _ := result.Prop("name"); name != "Acme" {
		t.Errorf("Prop(name) = %v", name)
	}
	if _, ok := result.Prop("employees"); ok {
		t.Error("embedded path should not appear as a property")
	}
	if !result.JSONContains(`"name":"Acme"`) {
		t.Errorf("JSON = %s", result.JSON)
	}
}

func TestTestConfigure_Error(t *testing.T) {
	_, err := TestConfigure(nil, "/x", Prepare(func(context.Context, *Representation) (*Representation, error) {
		return nil, errors.New("nope")
	}), WithRegistry(NewRegistry()))
	if !IsHookError(err) {
		t.Fatalf("expected hook error, got %v", err)
	}
}

func TestTestConfigureWithContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), ctxKey{}, "alice")

	result, err := TestConfigureWithContext(ctx, nil, "/me", Prepare(func(ctx context.Context, rep *Representation) (*Representation, error) {
		rep.Prop("user", ctx.Value(ctxKey{}))
		return nil, nil
	}), WithRegistry(NewRegistry()))
	if err != nil {
		t.Fatalf("TestConfigureWithContext failed: %v", err)
	}
	if user, _ := result.Prop("user"); user != "alice" {
		t.Errorf("user = %v", user)
	}
}

func TestTestRequest(t *testing.T) {
	rs := NewResponder(WithFactory(NewFactory(WithRegistry(NewRegistry()))), WithRequireHALAccept(true))

	result := TestRequest(rs, "/people/1", "application/hal+json", person{ID: 1, FirstName: "Bob"}, nil)
	if !result.IsOK() {
		t.Fatalf("expected 200, got %d", result.StatusCode)
	}
	if got := result.GetHeader("Content-Type"); got != "application/hal+json" {
		t.Errorf("Content-Type = %q", got)
	}
	if result.SelfHref() != "/people/1" {
		t.Errorf("SelfHref() = %q", result.SelfHref())
	}

	plain := TestRequest(rs, "/people/1", "application/json", person{ID: 1, FirstName: "Bob"}, nil)
	if plain.HasLink("self") {
		t.Error("plain response should have no links")
	}
	if name, _ := plain.Prop("firstName"); name != "Bob" {
		t.Errorf("firstName = %v", name)
	}
}

func TestTestResult_StatusChecks(t *testing.T) {
	result := newTestResult("not json", http.StatusNotFound, make(http.Header), nil)

	if result.IsOK() {
		t.Error("404 is not OK")
	}
	if !result.HasStatus(http.StatusNotFound) {
		t.Error("HasStatus(404) = false")
	}
	if result.SelfHref() != "" || result.Embedded("x") != nil {
		t.Error("undecodable body should have no links or embedded resources")
	}
}
