package rules

import (
	"fmt"
	"strings"
)

// Target is a compiled redirect target template: an alternating sequence of
// literal text fragments and references to names bound by the source pattern.
// Reference validity is established at parse time, so interpolation cannot
// fail at resolution time.
type Target struct {
	raw       string
	fragments []fragment
}

type fragment struct {
	// text is literal output, or the referenced name when ref is true.
	text string
	ref  bool
}

// parseTarget compiles a target template, verifying that every {name}
// component references a name in bound.
func parseTarget(text string, bound map[string]bool) (Target, error) {
	var frags []fragment
	for i, part := range strings.Split(text, "/") {
		if i > 0 {
			frags = append(frags, fragment{text: "/"})
		}
		if name, ok := captureRef(part); ok {
			if !bound[name] {
				return Target{}, fmt.Errorf("target %q: %q: %w", text, name, ErrUnknownCaptureReference)
			}
			frags = append(frags, fragment{text: name, ref: true})
			continue
		}
		if part != "" {
			frags = append(frags, fragment{text: part})
		}
	}
	return Target{raw: text, fragments: frags}, nil
}

// captureRef reports whether a target component is a {name} reference.
func captureRef(part string) (string, bool) {
	if len(part) < 3 || part[0] != '{' || part[len(part)-1] != '}' {
		return "", false
	}
	name := part[1 : len(part)-1]
	if !validCaptureName(name) {
		return "", false
	}
	return name, true
}

// Interpolate renders the target with the given bindings. Wildcard bindings
// are inserted as their already-joined suffix, preserving internal slashes.
// Every reference is guaranteed bound by parseTarget; an absent name would be
// an invariant violation and renders as empty.
func (t Target) Interpolate(b Bindings) string {
	var sb strings.Builder
	sb.Grow(len(t.raw))
	for _, f := range t.fragments {
		if f.ref {
			sb.WriteString(b[f.text])
		} else {
			sb.WriteString(f.text)
		}
	}
	return sb.String()
}

// String returns the template's source form.
func (t Target) String() string {
	return t.raw
}
