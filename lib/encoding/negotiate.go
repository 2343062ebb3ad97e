package encoding

import (
	"mime"
	"strconv"
	"strings"
)

// accepted is one media range of an Accept header.
type accepted struct {
	typ, sub string
	q        float64
}

// parseAccept parses an Accept header. Malformed ranges are skipped.
func parseAccept(header string) []accepted {
	var out []accepted
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		mt, params, err := mime.ParseMediaType(part)
		if err != nil {
			continue
		}
		typ, sub, ok := strings.Cut(mt, "/")
		if !ok {
			continue
		}
		q := 1.0
		if v, ok := params["q"]; ok {
			if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 && f <= 1 {
				q = f
			}
		}
		out = append(out, accepted{typ: typ, sub: sub, q: q})
	}
	return out
}

// quality returns the q value the most specific matching range assigns to
// mediaType, or -1 when no range matches.
func quality(ranges []accepted, mediaType string) float64 {
	typ, sub, _ := strings.Cut(mediaType, "/")
	best, specificity := -1.0, -1
	for _, r := range ranges {
		var s int
		switch {
		case r.typ == typ && r.sub == sub:
			s = 2
		case r.typ == typ && r.sub == "*":
			s = 1
		case r.typ == "*" && r.sub == "*":
			s = 0
		default:
			continue
		}
		if s > specificity {
			best, specificity = r.q, s
		}
	}
	return best
}

// Negotiate picks the codec the Accept header prefers. Ties go to the
// earlier codec in offers. An empty header accepts the first offer. The
// boolean is false when the header accepts none of the offers.
func Negotiate(accept string, offers ...Codec) (Codec, bool) {
	if len(offers) == 0 {
		return nil, false
	}
	if strings.TrimSpace(accept) == "" {
		return offers[0], true
	}

	ranges := parseAccept(accept)
	var (
		chosen Codec
		best   float64
	)
	for _, c := range offers {
		if q := quality(ranges, c.MediaType()); q > best {
			chosen, best = c, q
		}
	}
	return chosen, chosen != nil
}

// Accepts reports whether the Accept header explicitly names mediaType
// with a non-zero quality. Wildcards do not count.
func Accepts(accept, mediaType string) bool {
	for _, r := range parseAccept(accept) {
		if r.typ+"/"+r.sub == mediaType && r.q > 0 {
			return true
		}
	}
	return false
}
