// Package rules implements the path rule engine behind the _headers and
// _redirects site configuration files.
//
// Both files attach behavior to path patterns. A pattern is a /-separated
// template whose components are literals, single-segment captures of the form
// {name}, or a terminal wildcard of the form {*name} that swallows the rest of
// the path. Parsing produces immutable rule lists; resolution picks the most
// specific matching rule (literal-only patterns beat capture patterns, which
// beat wildcard patterns) with ties broken by declaration order, and binds
// captured segments for interpolation into redirect targets.
//
// All errors surface at parse time. Resolution never fails: an unmatched path
// is a normal outcome and the caller falls through to plain file serving.
package rules
