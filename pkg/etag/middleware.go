package etag

import (
	"net/http"
	"strings"
)

// Middleware wraps next with conditional-request handling backed by m.
// Matching If-None-Match requests are answered 304 without touching the
// inner handler; otherwise the response gets its ETag injected at
// WriteHeader time, chosen by the Content-Encoding the inner handler set.
// Last-Modified is dropped in favor of the stronger validator. onNotModified,
// if non-nil, is called for every 304 served.
func Middleware(m *Map, onNotModified func()) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tags, ok := m.Lookup(lookupPath(r.URL.Path))
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			if inm := r.Header.Get("If-None-Match"); inm != "" {
				if tag, ok := matchAny(tags, inm); ok {
					w.Header().Set("ETag", tag)
					w.WriteHeader(http.StatusNotModified)
					if onNotModified != nil {
						onNotModified()
					}
					return
				}
			}

			next.ServeHTTP(&tagWriter{ResponseWriter: w, tags: tags}, r)
		})
	}
}

// lookupPath maps directory requests onto the index document the file server
// will pick.
func lookupPath(path string) string {
	if strings.HasSuffix(path, "/") {
		return path + "index.html"
	}
	return path
}

// matchAny evaluates an If-None-Match header against the resource's tag set
// and returns the matching tag. Handles the * form and comma-separated
// lists; weak-comparison prefixes are stripped since all our tags are
// strong.
func matchAny(tags *Tags, inm string) (string, bool) {
	if strings.TrimSpace(inm) == "*" {
		return tags.Raw(), true
	}
	for _, candidate := range strings.Split(inm, ",") {
		candidate = strings.TrimSpace(candidate)
		candidate = strings.TrimPrefix(candidate, "W/")
		if tags.Contains(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// tagWriter injects the ETag when the inner handler commits its header, once
// the Content-Encoding is known.
type tagWriter struct {
	http.ResponseWriter
	tags  *Tags
	wrote bool
}

func (tw *tagWriter) WriteHeader(status int) {
	if !tw.wrote {
		tw.wrote = true
		enc := tw.Header().Get("Content-Encoding")
		if tag, ok := tw.tags.ForEncoding(enc); ok {
			tw.Header().Set("ETag", tag)
		}
		tw.Header().Del("Last-Modified")
	}
	tw.ResponseWriter.WriteHeader(status)
}

func (tw *tagWriter) Write(b []byte) (int, error) {
	if !tw.wrote {
		tw.WriteHeader(http.StatusOK)
	}
	return tw.ResponseWriter.Write(b)
}
