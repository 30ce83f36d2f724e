package rules

import "strings"

// Bindings maps capture and wildcard names to the request segments they
// matched. A Bindings value is scoped to a single resolution.
type Bindings map[string]string

// splitPath splits a request path the same way patterns are segmented:
// /-separated with empty components dropped. Malformed or unusual paths are
// never rejected here; every component is treated as an opaque segment.
func splitPath(path string) []string {
	var segs []string
	for _, part := range strings.Split(path, "/") {
		if part != "" {
			segs = append(segs, part)
		}
	}
	return segs
}

// Match attempts a structural match of the pattern against pre-split request
// segments. On success it returns the capture bindings.
func (p Pattern) Match(segs []string) (Bindings, bool) {
	b := Bindings{}
	for i, seg := range p.Segments {
		switch seg.Kind {
		case SegmentWildcard:
			// Terminal by construction; consumes the rest, even if empty.
			b[seg.Name] = strings.Join(segs[i:], "/")
			return b, true
		case SegmentCapture:
			if i >= len(segs) {
				return nil, false
			}
			b[seg.Name] = segs[i]
		default:
			if i >= len(segs) || segs[i] != seg.Text {
				return nil, false
			}
		}
	}
	if len(segs) != len(p.Segments) {
		return nil, false
	}
	return b, true
}

// MatchPath is a convenience wrapper over Match for a raw request path.
func (p Pattern) MatchPath(path string) (Bindings, bool) {
	return p.Match(splitPath(path))
}

// matchBest scans n patterns in declaration order and returns the index and
// bindings of the winner: the first structurally matching pattern of the most
// specific tier. Returns -1 when nothing matches.
func matchBest(n int, at func(int) Pattern, path string) (int, Bindings) {
	segs := splitPath(path)
	best := -1
	var bestTier Tier
	var bestBindings Bindings
	for i := 0; i < n; i++ {
		p := at(i)
		tier := p.Tier()
		if best >= 0 && tier <= bestTier {
			// Within a tier the earliest rule wins, so only a strictly more
			// specific pattern can displace the current winner.
			continue
		}
		if b, ok := p.Match(segs); ok {
			best, bestTier, bestBindings = i, tier, b
			if bestTier == TierLiteral {
				break
			}
		}
	}
	return best, bestBindings
}
