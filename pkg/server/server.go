// Package server wires the rule engine, ETag map, and static file handler
// into an HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/getstatikd/statikd/pkg/config"
	"github.com/getstatikd/statikd/pkg/etag"
	"github.com/getstatikd/statikd/pkg/logging"
	"github.com/getstatikd/statikd/pkg/metrics"
	"github.com/getstatikd/statikd/pkg/rules"
)

// shutdownTimeout bounds graceful shutdown before in-flight connections are
// dropped.
const shutdownTimeout = 10 * time.Second

// Server serves one static site with its compiled rule set.
type Server struct {
	cfg     *config.Config
	log     *slog.Logger
	fsys    fs.FS
	engine  *rules.Engine
	tags    *etag.Map
	hidden  []rules.Pattern
	metrics *metrics.ServerMetrics

	httpServer *http.Server
	watcher    *ruleWatcher

	mu      sync.Mutex
	running bool
}

// Option customizes a Server.
type Option func(*Server)

// WithLogger sets the operational logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics sets the metric set the server records into.
func WithMetrics(m *metrics.ServerMetrics) Option {
	return func(s *Server) {
		if m != nil {
			s.metrics = m
		}
	}
}

// New builds a Server from configuration: loads and compiles the rule files,
// hashes the site tree for ETags, and compiles the hidden path patterns.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Server{
		cfg:     cfg,
		log:     logging.Nop(),
		metrics: metrics.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	info, err := os.Stat(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("site root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("site root %s is not a directory", cfg.Root)
	}

	s.fsys = os.DirFS(cfg.Root)

	rs, err := s.loadRules()
	if err != nil {
		return nil, err
	}
	s.engine = rules.NewEngine(rs)
	s.recordRuleCounts(rs)

	tags, err := etag.Build(s.fsys)
	if err != nil {
		return nil, fmt.Errorf("build etag map: %w", err)
	}
	s.tags = tags
	s.log.Info("hashed site tree", "files", tags.Len())

	s.hidden, err = s.hiddenPatterns()
	if err != nil {
		return nil, err
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.buildHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// loadRules reads and compiles both rule files. A missing file is an empty,
// valid configuration; a malformed one aborts the load.
func (s *Server) loadRules() (*rules.RuleSet, error) {
	headersText, err := readIfPresent(filepath.Join(s.cfg.Root, s.cfg.HeadersFile))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.cfg.HeadersFile, err)
	}
	redirectsText, err := readIfPresent(filepath.Join(s.cfg.Root, s.cfg.RedirectsFile))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.cfg.RedirectsFile, err)
	}

	rs, err := rules.Compile(headersText, redirectsText,
		rules.WithDefaultRedirectStatus(s.cfg.Redirects.DefaultStatus))
	if err != nil {
		return nil, fmt.Errorf("compile rules: %w", err)
	}
	s.log.Info("compiled rules",
		"header_rules", len(rs.Headers),
		"redirect_rules", len(rs.Redirects))
	return rs, nil
}

func readIfPresent(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *Server) recordRuleCounts(rs *rules.RuleSet) {
	s.metrics.RulesLoaded.SetWith(float64(len(rs.Headers)), "headers")
	s.metrics.RulesLoaded.SetWith(float64(len(rs.Redirects)), "redirects")
}

// hiddenPatterns compiles the configured extra hidden patterns. The rule
// files themselves (and sibling variants like /_headers.gz) are blocked by
// prefix in the hidden-path middleware, not here.
func (s *Server) hiddenPatterns() ([]rules.Pattern, error) {
	patterns := make([]rules.Pattern, 0, len(s.cfg.Hidden))
	for _, src := range s.cfg.Hidden {
		p, err := rules.ParsePattern(src)
		if err != nil {
			return nil, fmt.Errorf("hidden pattern %q: %w", src, err)
		}
		patterns = append(patterns, p)
	}
	return patterns, nil
}

// Run starts serving and blocks until ctx is canceled or the listener fails,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}

	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	if s.cfg.Watch {
		w, err := newRuleWatcher(s)
		if err != nil {
			_ = ln.Close()
			return fmt.Errorf("watch rule files: %w", err)
		}
		s.watcher = w
		go w.run(ctx)
	}

	s.log.Info("serving site",
		"addr", ln.Addr().String(),
		"root", s.cfg.Root,
		"watch", s.cfg.Watch)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Error("graceful shutdown timed out", "error", err)
		return err
	}
	return nil
}

// siteFS exposes the site root as an fs.FS.
func (s *Server) siteFS() fs.FS {
	return s.fsys
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.cfg.Addr
}

// Handler exposes the composed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Reload recompiles the rule files and atomically swaps the active set.
// In-flight resolutions finish against the snapshot they started with. On
// error the previous set stays active.
func (s *Server) Reload() error {
	rs, err := s.loadRules()
	if err != nil {
		s.metrics.RuleReloadsTotal.IncWith("rules", "error")
		return err
	}
	s.engine.Swap(rs)
	s.recordRuleCounts(rs)
	s.metrics.RuleReloadsTotal.IncWith("rules", "ok")
	return nil
}
