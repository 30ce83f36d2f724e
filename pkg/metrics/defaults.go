package metrics

// Server metrics, registered once per process via Default().
//
// Label conventions: method carries the uppercase HTTP method; status the
// numeric response code; file the rule file kind (headers, redirects).
type ServerMetrics struct {
	Registry *Registry

	// RequestsTotal counts served requests. Labels: method, status.
	RequestsTotal *Counter

	// RedirectsTotal counts requests short-circuited by a redirect rule.
	RedirectsTotal *Counter

	// HeaderRuleHitsTotal counts responses that had a header rule applied.
	HeaderRuleHitsTotal *Counter

	// NotModifiedTotal counts If-None-Match hits answered with 304.
	NotModifiedTotal *Counter

	// RuleReloadsTotal counts rule file reloads. Labels: file, result
	// (ok, error).
	RuleReloadsTotal *Counter

	// RulesLoaded reports the number of compiled rules. Labels: file.
	RulesLoaded *Gauge
}

// Default builds the server metric set on a fresh registry.
func Default() *ServerMetrics {
	r := NewRegistry()
	return &ServerMetrics{
		Registry: r,
		RequestsTotal: r.NewCounter("statikd_requests_total",
			"Total HTTP requests served.", "method", "status"),
		RedirectsTotal: r.NewCounter("statikd_redirects_total",
			"Requests answered by a redirect rule."),
		HeaderRuleHitsTotal: r.NewCounter("statikd_header_rule_hits_total",
			"Responses with a header rule applied."),
		NotModifiedTotal: r.NewCounter("statikd_not_modified_total",
			"Conditional requests answered with 304 Not Modified."),
		RuleReloadsTotal: r.NewCounter("statikd_rule_reloads_total",
			"Rule file reload attempts.", "file", "result"),
		RulesLoaded: r.NewGauge("statikd_rules_loaded",
			"Number of compiled rules currently active.", "file"),
	}
}
