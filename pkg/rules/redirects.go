package rules

import (
	"bufio"
	"net/http"
	"strconv"
	"strings"
)

// DefaultRedirectStatus is used when a redirect line omits its status field.
// Overridable with WithDefaultRedirectStatus.
const DefaultRedirectStatus = http.StatusFound

// RedirectRule maps a path pattern to a target template and a status code.
type RedirectRule struct {
	Pattern Pattern
	Target  Target
	Status  int
}

// RedirectOption configures redirect parsing.
type RedirectOption func(*redirectOptions)

type redirectOptions struct {
	defaultStatus int
}

// WithDefaultRedirectStatus changes the status code assigned to redirect
// lines that omit the third field.
func WithDefaultRedirectStatus(code int) RedirectOption {
	return func(o *redirectOptions) {
		o.defaultStatus = code
	}
}

// ParseRedirects parses the _redirects file format: one redirect per line,
// two or three whitespace-separated fields:
//
//	/old/path            /new/path           301
//	/docs/{page}         /manual/{page}
//	/archive/{*rest}     https://old.example.com/{rest}  308
//
// The first field is a path pattern, the second a target template whose
// {name} components must reference names bound by the pattern, and the
// optional third a status code. Out-of-range integers are passed through
// verbatim so operators can use unusual codes on purpose. Blank lines and
// lines starting with # are skipped. Errors carry the offending line number.
func ParseRedirects(text string, opts ...RedirectOption) ([]RedirectRule, error) {
	options := redirectOptions{defaultStatus: DefaultRedirectStatus}
	for _, opt := range opts {
		opt(&options)
	}

	var out []RedirectRule
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		trimmed := strings.TrimSpace(sc.Text())
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		fields := strings.Fields(trimmed)
		if len(fields) < 2 || len(fields) > 3 {
			return nil, parseErrorf(line, ErrMalformedRedirectLine, "got %d fields", len(fields))
		}

		pattern, err := ParsePattern(fields[0])
		if err != nil {
			return nil, &ParseError{Line: line, Err: err}
		}

		target, err := parseTarget(fields[1], pattern.Names())
		if err != nil {
			return nil, &ParseError{Line: line, Err: err}
		}

		status := options.defaultStatus
		if len(fields) == 3 {
			status, err = strconv.Atoi(fields[2])
			if err != nil || status <= 0 {
				return nil, parseErrorf(line, ErrInvalidStatusCode, "%q", fields[2])
			}
		}

		out = append(out, RedirectRule{Pattern: pattern, Target: target, Status: status})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
