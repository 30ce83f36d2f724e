package rules

import "sync/atomic"

// RuleSet is the compiled result of one configuration load: the ordered
// header and redirect rules. It is immutable after construction and safe for
// concurrent readers without synchronization.
type RuleSet struct {
	Headers   []HeaderRule
	Redirects []RedirectRule
}

// Compile parses both configuration texts into a RuleSet. Either text may be
// empty; an empty text yields an empty, valid rule list, which is distinct
// from a parse error.
func Compile(headersText, redirectsText string, opts ...RedirectOption) (*RuleSet, error) {
	headers, err := ParseHeaders(headersText)
	if err != nil {
		return nil, err
	}
	redirects, err := ParseRedirects(redirectsText, opts...)
	if err != nil {
		return nil, err
	}
	return &RuleSet{Headers: headers, Redirects: redirects}, nil
}

// Redirect is a resolved redirect: the interpolated Location and the rule's
// status code.
type Redirect struct {
	Location string
	Status   int
}

// ResolveHeaders finds the winning header rule for a request path. Returns
// nil when no rule matches. The returned slice is shared with the RuleSet and
// must not be mutated.
func (rs *RuleSet) ResolveHeaders(path string) []Header {
	i, _ := matchBest(len(rs.Headers), func(i int) Pattern { return rs.Headers[i].Pattern }, path)
	if i < 0 {
		return nil
	}
	return rs.Headers[i].Headers
}

// ResolveRedirect finds the winning redirect rule for a request path and
// interpolates its target with the match's bindings.
func (rs *RuleSet) ResolveRedirect(path string) (Redirect, bool) {
	i, b := matchBest(len(rs.Redirects), func(i int) Pattern { return rs.Redirects[i].Pattern }, path)
	if i < 0 {
		return Redirect{}, false
	}
	rule := rs.Redirects[i]
	return Redirect{Location: rule.Target.Interpolate(b), Status: rule.Status}, true
}

// Engine owns the current RuleSet and hands resolution calls to it. Reload is
// a whole-set replacement: Swap publishes a new snapshot atomically while
// in-flight resolutions finish against the one they started with.
type Engine struct {
	rules atomic.Pointer[RuleSet]
}

// NewEngine creates an Engine serving the given RuleSet. A nil set behaves
// like an empty one.
func NewEngine(rs *RuleSet) *Engine {
	e := &Engine{}
	e.Swap(rs)
	return e
}

// Swap atomically replaces the engine's RuleSet.
func (e *Engine) Swap(rs *RuleSet) {
	if rs == nil {
		rs = &RuleSet{}
	}
	e.rules.Store(rs)
}

// RuleSet returns the current snapshot.
func (e *Engine) RuleSet() *RuleSet {
	return e.rules.Load()
}

// ResolveHeaders resolves header rules against the current snapshot.
func (e *Engine) ResolveHeaders(path string) []Header {
	return e.rules.Load().ResolveHeaders(path)
}

// ResolveRedirect resolves redirect rules against the current snapshot.
func (e *Engine) ResolveRedirect(path string) (Redirect, bool) {
	return e.rules.Load().ResolveRedirect(path)
}
