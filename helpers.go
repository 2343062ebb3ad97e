package hal

import (
	"net/http"
	"strings"

	"github.com/pthm/hal/lib/encoding"
)

// SelfURL returns the canonical URL of the requested resource: the request
// path and query, prefixed with scheme and host when absolute is set.
//
//	GET /people?page=2  ->  "/people?page=2"
//	                    ->  "https://api.example.com/people?page=2" (absolute)
func SelfURL(r *http.Request, absolute bool) string {
	uri := r.URL.RequestURI()
	if !absolute {
		return uri
	}
	return RequestScheme(r) + "://" + r.Host + uri
}

// RequestScheme returns "https" for TLS requests or requests forwarded by a
// proxy that says so, and "http" otherwise.
func RequestScheme(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme, _, _ := strings.Cut(proto, ",")
		return strings.ToLower(strings.TrimSpace(scheme))
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

// WantsHAL reports whether the request explicitly accepts a HAL media type.
//
// Use this in handlers that serve both hypermedia and plain clients:
//
//	if !hal.WantsHAL(r) {
//	    return writePlain(w, entity)
//	}
func WantsHAL(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return encoding.Accepts(accept, encoding.MediaTypeHALJSON) ||
		encoding.Accepts(accept, encoding.MediaTypeHALMsgpack)
}
