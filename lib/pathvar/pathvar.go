// Package pathvar looks up dotted paths ("company.address.city") inside
// arbitrary Go values and flattens the results into a single-level variable
// map, the shape URI template expanders expect.
//
// Lookup walks maps with string keys, structs (by json tag name, then field
// name), slices and arrays (by numeric segment), and any value implementing
// Getter. Pointers and interfaces are dereferenced along the way.
package pathvar

import (
	"reflect"
	"strconv"
	"strings"
)

// Getter is implemented by ordered or custom containers that want to take
// part in path lookups without exposing their internals to reflection.
type Getter interface {
	Get(key string) (any, bool)
}

// Lookup resolves path against root. An empty path returns root itself.
// The boolean is false if any segment is missing or the value is nil.
func Lookup(root any, path string) (any, bool) {
	v, _, ok := Resolve(root, path)
	return v, ok
}

// Resolve is Lookup that also returns the path of the value as it appears
// in root's JSON encoding. Struct segments are rewritten to the json tag
// name, or the Go field name for untagged fields, so "boss" on a struct
// with an untagged Boss field resolves to "Boss".
func Resolve(root any, path string) (any, string, bool) {
	if path == "" {
		return root, "", root != nil
	}
	segs := strings.Split(path, ".")
	keys := make([]string, len(segs))
	cur := root
	for i, seg := range segs {
		next, key, ok := step(cur, seg)
		if !ok {
			return nil, "", false
		}
		cur, keys[i] = next, key
	}
	if isNil(reflect.ValueOf(cur)) {
		return nil, "", false
	}
	return cur, strings.Join(keys, "."), true
}

// Bind looks up every name in names and returns the values found, keyed by
// the full dotted name. {foo.a.b} is bound under "foo.a.b", not nested.
func Bind(root any, names []string) map[string]any {
	vars := make(map[string]any, len(names))
	for _, name := range names {
		if v, _, ok := Resolve(root, name); ok {
			vars[name] = v
		}
	}
	return vars
}

func step(cur any, seg string) (any, string, bool) {
	if cur == nil {
		return nil, "", false
	}
	if g, ok := cur.(Getter); ok {
		v, ok := g.Get(seg)
		return v, seg, ok
	}

	v := indirect(reflect.ValueOf(cur))
	if !v.IsValid() {
		return nil, "", false
	}

	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil, "", false
		}
		mv := v.MapIndex(reflect.ValueOf(seg).Convert(v.Type().Key()))
		if !mv.IsValid() {
			return nil, "", false
		}
		return mv.Interface(), seg, true
	case reflect.Struct:
		fv, key, ok := field(v, seg)
		if !ok {
			return nil, "", false
		}
		return fv.Interface(), key, true
	case reflect.Slice, reflect.Array:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= v.Len() {
			return nil, "", false
		}
		return v.Index(i).Interface(), seg, true
	}
	return nil, "", false
}

// field finds the exported struct field answering to name and the key it
// encodes under. json tag names win over Go field names; a case-insensitive
// name match is the last resort.
func field(v reflect.Value, name string) (reflect.Value, string, bool) {
	t := v.Type()
	var byName, byFold reflect.Value
	var nameKey, foldKey string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		fv := v.Field(i)
		if f.Anonymous && f.Tag.Get("json") == "" {
			// Same promotion rules as encoding/json: unexported embedded
			// pointers are skipped, unexported embedded structs are not.
			if !f.IsExported() && f.Type.Kind() == reflect.Pointer {
				continue
			}
			if inner := indirect(fv); inner.IsValid() && inner.Kind() == reflect.Struct {
				if got, key, ok := field(inner, name); ok {
					return got, key, true
				}
			}
			continue
		}
		if !f.IsExported() {
			continue
		}
		tag, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if tag == "-" {
			continue
		}
		if tag == name {
			return fv, tag, true
		}
		key := tag
		if key == "" {
			key = f.Name
		}
		if tag == "" && f.Name == name && !byName.IsValid() {
			byName, nameKey = fv, key
		}
		if strings.EqualFold(f.Name, name) && !byFold.IsValid() {
			byFold, foldKey = fv, key
		}
	}
	if byName.IsValid() {
		return byName, nameKey, true
	}
	if byFold.IsValid() {
		return byFold, foldKey, true
	}
	return reflect.Value{}, "", false
}

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func isNil(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
