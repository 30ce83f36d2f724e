package rules

import (
	"bufio"
	"strings"
)

// Header is one name/value pair attached by a header rule. Order matters:
// when a rule is applied, later duplicates override earlier ones.
type Header struct {
	Name  string
	Value string
}

// HeaderRule attaches an ordered list of response headers to a path pattern.
type HeaderRule struct {
	Pattern Pattern
	Headers []Header
}

// ParseHeaders parses the _headers file format:
//
//	/docs/{page}
//	  X-Frame-Options: DENY
//	  Cache-Control: max-age=3600
//
// An unindented non-blank line starts a rule with its path pattern; the
// indented lines that follow are its headers, split on the first colon. Blank
// lines and lines whose content starts with # are skipped. A rule with no
// headers is legal but inert. Errors carry the offending line number.
func ParseHeaders(text string) ([]HeaderRule, error) {
	var out []HeaderRule
	var current *HeaderRule

	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Text()
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if raw[0] == ' ' || raw[0] == '\t' {
			if current == nil {
				return nil, &ParseError{Line: line, Err: ErrOrphanedHeaderLine}
			}
			name, value, ok := strings.Cut(trimmed, ":")
			if !ok {
				return nil, parseErrorf(line, ErrMissingHeaderColon, "%q", trimmed)
			}
			current.Headers = append(current.Headers, Header{
				Name:  strings.TrimSpace(name),
				Value: strings.TrimSpace(value),
			})
			continue
		}
		if current != nil {
			out = append(out, *current)
		}
		pattern, err := ParsePattern(trimmed)
		if err != nil {
			return nil, &ParseError{Line: line, Err: err}
		}
		current = &HeaderRule{Pattern: pattern}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if current != nil {
		out = append(out, *current)
	}
	return out, nil
}
