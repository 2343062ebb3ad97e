package encoding

import (
	"bytes"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

func TestNegotiate(t *testing.T) {
	offers := []Codec{HALJSON, HALMsgpack, JSON}

	tests := []struct {
		name   string
		accept string
		want   string
		ok     bool
	}{
		{"empty", "", MediaTypeHALJSON, true},
		{"wildcard", "*/*", MediaTypeHALJSON, true},
		{"hal json", "application/hal+json", MediaTypeHALJSON, true},
		{"hal msgpack", "application/hal+msgpack", MediaTypeHALMsgpack, true},
		{"plain json", "application/json", MediaTypeJSON, true},
		{"quality", "application/hal+json;q=0.5, application/hal+msgpack", MediaTypeHALMsgpack, true},
		{"specific beats wildcard", "application/*;q=0.2, application/json;q=0.9", MediaTypeJSON, true},
		{"browser", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8", MediaTypeHALJSON, true},
		{"excluded", "application/hal+json;q=0, application/json", MediaTypeJSON, true},
		{"unsupported", "text/html", "", false},
		{"malformed range skipped", "garbage;;, application/json", MediaTypeJSON, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Negotiate(tt.accept, offers...)
			if ok != tt.ok {
				t.Fatalf("Negotiate(%q) ok = %v, want %v", tt.accept, ok, tt.ok)
			}
			if !ok {
				return
			}
			if got.MediaType() != tt.want {
				t.Errorf("Negotiate(%q) = %s, want %s", tt.accept, got.MediaType(), tt.want)
			}
		})
	}
}

func TestNegotiateNoOffers(t *testing.T) {
	if _, ok := Negotiate("*/*"); ok {
		t.Error("expected no codec without offers")
	}
}

func TestAccepts(t *testing.T) {
	if !Accepts("text/html, application/hal+json;q=0.3", MediaTypeHALJSON) {
		t.Error("explicit hal+json should be accepted")
	}
	if Accepts("*/*", MediaTypeHALJSON) {
		t.Error("wildcards must not count as explicit")
	}
	if Accepts("application/hal+json;q=0", MediaTypeHALJSON) {
		t.Error("q=0 must not count")
	}
}

func TestJSONCodecDoesNotEscapeHTML(t *testing.T) {
	var buf bytes.Buffer
	if err := HALJSON.Encode(&buf, map[string]string{"href": "/people?a=1&b=2"}); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if got, want := buf.String(), "{\"href\":\"/people?a=1&b=2\"}\n"; got != want {
		t.Errorf("Encode = %q, want %q", got, want)
	}
}

func TestJSONCodecIndent(t *testing.T) {
	var buf bytes.Buffer
	c := JSONCodec{Type: MediaTypeHALJSON, Indent: "  "}
	if err := c.Encode(&buf, map[string]int{"a": 1}); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if got, want := buf.String(), "{\n  \"a\": 1\n}\n"; got != want {
		t.Errorf("Encode = %q, want %q", got, want)
	}
}

func TestMsgpackCodecUsesJSONTags(t *testing.T) {
	type entity struct {
		FirstName string `json:"firstName"`
	}

	var buf bytes.Buffer
	if err := HALMsgpack.Encode(&buf, entity{FirstName: "Bob"}); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var out map[string]any
	if err := msgpack.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if out["firstName"] != "Bob" {
		t.Errorf("decoded %v, want firstName=Bob", out)
	}
}

func TestIsHAL(t *testing.T) {
	if !IsHAL(HALJSON) || !IsHAL(HALMsgpack) {
		t.Error("HAL codecs not recognized")
	}
	if IsHAL(JSON) || IsHAL(MsgpackCodec{Type: "application/msgpack"}) {
		t.Error("plain codecs recognized as HAL")
	}
}
