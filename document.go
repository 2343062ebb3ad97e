package hal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Document is a JSON object that remembers key insertion order. It is the
// serialized form of a Representation: `_links` first, then entity
// properties, extra properties and `_embedded`.
//
// Values are JSON-compatible Go values: nested *Document, []any, *Link,
// json.Number, string, bool or nil.
type Document struct {
	keys   []string
	values map[string]any
}

var (
	_ json.Marshaler        = (*Document)(nil)
	_ msgpack.CustomEncoder = (*Document)(nil)
)

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{values: make(map[string]any)}
}

// Set stores v under key. An existing key keeps its position.
func (d *Document) Set(key string, v any) {
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = v
}

// Get returns the value stored under key.
func (d *Document) Get(key string) (any, bool) {
	v, ok := d.values[key]
	return v, ok
}

// Delete removes key.
func (d *Document) Delete(key string) {
	if _, ok := d.values[key]; !ok {
		return
	}
	delete(d.values, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
}

// DeletePath removes a dotted path ("company.address") from nested
// documents. Missing segments are ignored.
func (d *Document) DeletePath(path string) {
	head, rest, nested := strings.Cut(path, ".")
	if !nested {
		d.Delete(path)
		return
	}
	if child, ok := d.values[head].(*Document); ok {
		child.DeletePath(rest)
	}
}

// Keys returns the keys in insertion order.
func (d *Document) Keys() []string {
	return append([]string(nil), d.keys...)
}

// Len returns the number of keys.
func (d *Document) Len() int {
	return len(d.keys)
}

// MarshalJSON writes the document with its keys in insertion order.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalJSON(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := marshalJSON(d.values[k])
		if err != nil {
			return nil, fmt.Errorf("hal: encoding %q: %w", k, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalJSON is json.Marshal without HTML escaping, so "&" in hrefs stays
// readable.
func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// EncodeMsgpack writes the document as a msgpack map in insertion order.
func (d *Document) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeMapLen(len(d.keys)); err != nil {
		return err
	}
	for _, k := range d.keys {
		if err := enc.EncodeString(k); err != nil {
			return err
		}
		if err := encodeMsgpackValue(enc, d.values[k]); err != nil {
			return fmt.Errorf("hal: encoding %q: %w", k, err)
		}
	}
	return nil
}

func encodeMsgpackValue(enc *msgpack.Encoder, v any) error {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return enc.EncodeInt(i)
		}
		f, err := x.Float64()
		if err != nil {
			return err
		}
		return enc.EncodeFloat64(f)
	case []any:
		if err := enc.EncodeArrayLen(len(x)); err != nil {
			return err
		}
		for _, item := range x {
			if err := encodeMsgpackValue(enc, item); err != nil {
				return err
			}
		}
		return nil
	}
	return enc.Encode(v)
}

// Decode decodes a JSON value the way entities are read back: objects
// become *Document with their key order intact, arrays []any and numbers
// json.Number. The result can be passed to Factory.Create as an entity.
func Decode(data []byte) (any, error) {
	return decodeOrdered(data)
}

// decodeOrdered decodes JSON into Documents, []any and scalars, keeping
// object key order. Numbers are kept as json.Number.
func decodeOrdered(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("hal: trailing data after JSON value")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch delim {
	case '{':
		doc := NewDocument()
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := kt.(string)
			if !ok {
				return nil, fmt.Errorf("hal: unexpected object key %v", kt)
			}
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			doc.Set(key, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return doc, nil
	case '[':
		arr := []any{}
		for dec.More() {
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	}
	return nil, fmt.Errorf("hal: unexpected delimiter %v", delim)
}
