package hal

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/yosida95/uritemplate/v3"

	"github.com/pthm/hal/lib/pathvar"
)

// ExpandHref expands the RFC 6570 template href against ctx. Variable names
// are dotted paths into ctx: {company.id} binds ctx.company.id. Variables
// that cannot be found expand to nothing. Hrefs without braces are returned
// unchanged.
func ExpandHref(href string, ctx any) (string, error) {
	if !strings.Contains(href, "{") {
		return href, nil
	}
	tmpl, err := compileTemplate(href)
	if err != nil {
		return "", err
	}
	return expandTemplate(tmpl, ctx)
}

func compileTemplate(href string) (*uritemplate.Template, error) {
	tmpl, err := uritemplate.New(href)
	if err != nil {
		return nil, configErrorf(fmt.Sprintf("href %q", href), "malformed URI template: %v", err)
	}
	return tmpl, nil
}

func expandTemplate(tmpl *uritemplate.Template, ctx any) (string, error) {
	vars := uritemplate.Values{}
	for name, v := range pathvar.Bind(ctx, tmpl.Varnames()) {
		if tv, ok := templateValue(v); ok {
			vars.Set(name, tv)
		}
	}
	return tmpl.Expand(vars)
}

// templateValue converts a looked-up Go value into a template value.
// Scalars become strings, slices become lists and string-keyed maps become
// associative arrays.
func templateValue(v any) (uritemplate.Value, bool) {
	switch x := v.(type) {
	case string:
		return uritemplate.String(x), true
	case json.Number:
		return uritemplate.String(x.String()), true
	case fmt.Stringer:
		return uritemplate.String(x.String()), true
	case []string:
		return uritemplate.List(x...), true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.String:
		return uritemplate.String(fmt.Sprint(v)), true
	case reflect.Slice, reflect.Array:
		items := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items = append(items, fmt.Sprint(rv.Index(i).Interface()))
		}
		return uritemplate.List(items...), true
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return uritemplate.Value{}, false
		}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		kv := make([]string, 0, 2*len(keys))
		for _, k := range keys {
			kv = append(kv, k, fmt.Sprint(rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface()))
		}
		return uritemplate.KV(kv...), true
	}
	return uritemplate.Value{}, false
}
