package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/getstatikd/statikd/pkg/etag"
	"github.com/getstatikd/statikd/pkg/rules"
)

// buildHandler composes the middleware stack. Outermost first: access
// logging and metrics, then header rules (so they can override anything the
// inner layers set), then redirects (before any filesystem access), then
// hidden paths, then conditional requests, then the file server. The
// metrics endpoint, when enabled, bypasses the site stack.
func (s *Server) buildHandler() http.Handler {
	var h http.Handler = &staticHandler{
		root:         s.siteFS(),
		notFoundPage: s.cfg.NotFoundPage,
	}
	h = etag.Middleware(s.tags, s.metrics.NotModifiedTotal.Inc)(h)
	h = s.hiddenMiddleware(h)
	h = s.redirectMiddleware(h)
	h = s.headerRuleMiddleware(h)
	h = s.observeMiddleware(h)

	if !s.cfg.Metrics.Enabled {
		return h
	}
	mux := http.NewServeMux()
	mux.Handle(s.cfg.Metrics.Path, s.metrics.Registry.Handler())
	mux.Handle("/", h)
	return mux
}

// statusWriter records the committed status code for logging and metrics.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// observeMiddleware tags each request with an ID, writes the access log, and
// records request metrics.
func (s *Server) observeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := uuid.NewString()
		sw := &statusWriter{ResponseWriter: w}

		next.ServeHTTP(sw, r)

		status := sw.status
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.RequestsTotal.IncWith(r.Method, strconv.Itoa(status))
		s.log.Info("request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration", time.Since(start))
	})
}

// headerRuleMiddleware applies the winning header rule to the response at
// WriteHeader time, after the inner layers have assembled their headers. The
// rule's pairs are applied in file order with Set, so a later duplicate name
// within the rule overrides an earlier one, and rule headers override
// file-server defaults.
func (s *Server) headerRuleMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers := s.engine.ResolveHeaders(r.URL.Path)
		if len(headers) == 0 {
			next.ServeHTTP(w, r)
			return
		}
		s.metrics.HeaderRuleHitsTotal.Inc()
		next.ServeHTTP(&ruleHeaderWriter{ResponseWriter: w, headers: headers}, r)
	})
}

type ruleHeaderWriter struct {
	http.ResponseWriter
	headers []rules.Header
	wrote   bool
}

func (w *ruleHeaderWriter) WriteHeader(status int) {
	if !w.wrote {
		w.wrote = true
		for _, h := range w.headers {
			w.Header().Set(h.Name, h.Value)
		}
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *ruleHeaderWriter) Write(b []byte) (int, error) {
	if !w.wrote {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// redirectMiddleware short-circuits file serving when a redirect rule
// matches.
func (s *Server) redirectMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		redirect, ok := s.engine.ResolveRedirect(r.URL.Path)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		s.metrics.RedirectsTotal.Inc()
		w.Header().Set("Location", redirect.Location)
		w.WriteHeader(redirect.Status)
	})
}

// hiddenMiddleware blocks the rule files (and sibling variants such as
// /_headers.gz) plus any configured hidden patterns, responding as if the
// file did not exist.
func (s *Server) hiddenMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.isHidden(r.URL.Path) {
			s.log.Debug("blocked hidden path", "path", r.URL.Path)
			serveNotFound(w, s.siteFS(), s.cfg.NotFoundPage)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) isHidden(path string) bool {
	for _, reserved := range []string{"/" + s.cfg.HeadersFile, "/" + s.cfg.RedirectsFile} {
		rest, ok := strings.CutPrefix(path, reserved)
		if ok && !strings.Contains(rest, "/") {
			return true
		}
	}
	for _, p := range s.hidden {
		if _, ok := p.MatchPath(path); ok {
			return true
		}
	}
	return false
}
