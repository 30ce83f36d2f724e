package rules

import (
	"fmt"
	"strings"
)

// SegmentKind identifies how one pattern component matches request segments.
type SegmentKind int

const (
	// SegmentLiteral matches exactly one identical request segment.
	SegmentLiteral SegmentKind = iota

	// SegmentCapture matches exactly one request segment of any content and
	// binds it to the segment's name.
	SegmentCapture

	// SegmentWildcard matches the entire remaining suffix of the request path,
	// possibly empty, and binds the /-joined suffix to the segment's name.
	// Only legal in terminal position.
	SegmentWildcard
)

// Segment is one component of a parsed path pattern.
type Segment struct {
	Kind SegmentKind

	// Text is the component text for literal segments.
	Text string

	// Name is the binding name for capture and wildcard segments.
	Name string
}

// Tier ranks patterns by specificity. A higher tier always wins over a lower
// one, regardless of declaration order.
type Tier int

const (
	// TierWildcard is the tier of patterns containing a wildcard segment.
	TierWildcard Tier = iota + 1

	// TierCapture is the tier of patterns containing captures but no wildcard.
	TierCapture

	// TierLiteral is the tier of patterns made of literal segments only.
	TierLiteral
)

func (t Tier) String() string {
	switch t {
	case TierLiteral:
		return "literal"
	case TierCapture:
		return "capture"
	case TierWildcard:
		return "wildcard"
	default:
		return fmt.Sprintf("Tier(%d)", int(t))
	}
}

// Pattern is a parsed path template. The zero value matches only the root
// path. Patterns are immutable after parsing.
type Pattern struct {
	Segments []Segment
}

// ParsePattern parses a /-separated path pattern. Empty components are
// skipped, so "/docs/intro", "docs/intro" and "/docs/intro/" are the same
// pattern. The empty string denotes the root path.
func ParsePattern(text string) (Pattern, error) {
	var segs []Segment
	seen := map[string]bool{}
	for _, part := range strings.Split(text, "/") {
		if part == "" {
			continue
		}
		if len(segs) > 0 && segs[len(segs)-1].Kind == SegmentWildcard {
			return Pattern{}, fmt.Errorf("pattern %q: %w", text, ErrWildcardNotTerminal)
		}
		seg, err := parseSegment(part)
		if err != nil {
			return Pattern{}, fmt.Errorf("pattern %q: %w", text, err)
		}
		if seg.Kind != SegmentLiteral {
			if seen[seg.Name] {
				return Pattern{}, fmt.Errorf("pattern %q: %q: %w", text, seg.Name, ErrDuplicateCaptureName)
			}
			seen[seg.Name] = true
		}
		segs = append(segs, seg)
	}
	return Pattern{Segments: segs}, nil
}

func parseSegment(part string) (Segment, error) {
	switch {
	case strings.HasPrefix(part, "{*") && strings.HasSuffix(part, "}"):
		name := part[2 : len(part)-1]
		if !validCaptureName(name) {
			return Segment{}, fmt.Errorf("%q: %w", part, ErrInvalidCaptureName)
		}
		return Segment{Kind: SegmentWildcard, Name: name}, nil
	case strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}"):
		name := part[1 : len(part)-1]
		if !validCaptureName(name) {
			return Segment{}, fmt.Errorf("%q: %w", part, ErrInvalidCaptureName)
		}
		return Segment{Kind: SegmentCapture, Name: name}, nil
	default:
		return Segment{Kind: SegmentLiteral, Text: part}, nil
	}
}

func validCaptureName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return false
		}
	}
	return true
}

// Tier reports the pattern's specificity tier: the tier of its least specific
// segment kind.
func (p Pattern) Tier() Tier {
	tier := TierLiteral
	for _, seg := range p.Segments {
		switch seg.Kind {
		case SegmentWildcard:
			return TierWildcard
		case SegmentCapture:
			tier = TierCapture
		}
	}
	return tier
}

// Names returns the set of capture and wildcard names the pattern binds.
func (p Pattern) Names() map[string]bool {
	names := map[string]bool{}
	for _, seg := range p.Segments {
		if seg.Kind != SegmentLiteral {
			names[seg.Name] = true
		}
	}
	return names
}

// Equal reports whether two patterns have the same segment sequence.
// Equality is structural, not by source text.
func (p Pattern) Equal(other Pattern) bool {
	if len(p.Segments) != len(other.Segments) {
		return false
	}
	for i, seg := range p.Segments {
		if seg != other.Segments[i] {
			return false
		}
	}
	return true
}

// String renders the pattern in its canonical source form.
func (p Pattern) String() string {
	if len(p.Segments) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, seg := range p.Segments {
		b.WriteByte('/')
		switch seg.Kind {
		case SegmentCapture:
			b.WriteByte('{')
			b.WriteString(seg.Name)
			b.WriteByte('}')
		case SegmentWildcard:
			b.WriteString("{*")
			b.WriteString(seg.Name)
			b.WriteByte('}')
		default:
			b.WriteString(seg.Text)
		}
	}
	return b.String()
}
