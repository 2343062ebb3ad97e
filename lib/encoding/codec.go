// Package encoding writes HAL documents and plain entities in the media
// types a client can ask for.
package encoding

import (
	"encoding/json"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Media types served by the codecs in this package.
const (
	MediaTypeHALJSON    = "application/hal+json"
	MediaTypeHALMsgpack = "application/hal+msgpack"
	MediaTypeJSON       = "application/json"
)

// Codec writes values in one media type.
type Codec interface {
	// MediaType is the Content-Type the codec produces.
	MediaType() string
	Encode(w io.Writer, v any) error
}

// JSONCodec encodes with encoding/json. HTML characters are not escaped
// so hrefs keep their literal '&'.
type JSONCodec struct {
	Type   string
	Indent string
}

// MediaType implements Codec.
func (c JSONCodec) MediaType() string {
	return c.Type
}

// Encode implements Codec.
func (c JSONCodec) Encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if c.Indent != "" {
		enc.SetIndent("", c.Indent)
	}
	return enc.Encode(v)
}

// MsgpackCodec encodes with msgpack. Structs without msgpack tags use their
// json tags, so both codecs expose the same property names.
type MsgpackCodec struct {
	Type string
}

// MediaType implements Codec.
func (c MsgpackCodec) MediaType() string {
	return c.Type
}

// Encode implements Codec.
func (c MsgpackCodec) Encode(w io.Writer, v any) error {
	enc := msgpack.NewEncoder(w)
	enc.SetCustomStructTag("json")
	return enc.Encode(v)
}

// HALJSON, HALMsgpack and JSON are the codecs the responder negotiates
// between, in order of preference.
var (
	HALJSON    Codec = JSONCodec{Type: MediaTypeHALJSON}
	HALMsgpack Codec = MsgpackCodec{Type: MediaTypeHALMsgpack}
	JSON       Codec = JSONCodec{Type: MediaTypeJSON}
)

// IsHAL reports whether the codec produces a HAL media type.
func IsHAL(c Codec) bool {
	switch c.MediaType() {
	case MediaTypeHALJSON, MediaTypeHALMsgpack:
		return true
	}
	return false
}
