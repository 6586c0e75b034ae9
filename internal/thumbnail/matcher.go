package thumbnail

import (
	"fmt"
	"strings"
)

// restSegment, when last in a pattern, matches zero or more trailing segments.
const restSegment = "..."

// PathMatcher matches slash-delimited paths against a pattern such as
// "profile_photos/{userID}/...". Literal segments must match exactly, {name}
// segments capture one non-empty segment.
type PathMatcher struct {
	pattern  string
	segments []matchSegment
	rest     bool
}

type matchSegment struct {
	literal string
	field   string
}

func NewPathMatcher(pattern string) (*PathMatcher, error) {
	if pattern == "" {
		return nil, fmt.Errorf("empty path pattern")
	}
	parts := strings.Split(pattern, "/")
	m := &PathMatcher{pattern: pattern}
	seen := make(map[string]bool)
	for i, part := range parts {
		switch {
		case part == restSegment:
			if i != len(parts)-1 {
				return nil, fmt.Errorf("pattern %q: %s must be the last segment", pattern, restSegment)
			}
			m.rest = true
		case strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}"):
			name := part[1 : len(part)-1]
			if name == "" {
				return nil, fmt.Errorf("pattern %q: empty field name", pattern)
			}
			if seen[name] {
				return nil, fmt.Errorf("pattern %q: duplicate field %q", pattern, name)
			}
			seen[name] = true
			m.segments = append(m.segments, matchSegment{field: name})
		case part == "":
			return nil, fmt.Errorf("pattern %q: empty segment", pattern)
		default:
			m.segments = append(m.segments, matchSegment{literal: part})
		}
	}
	return m, nil
}

func MustPathMatcher(pattern string) *PathMatcher {
	m, err := NewPathMatcher(pattern)
	if err != nil {
		panic(err)
	}
	return m
}

// Match reports whether p matches and returns the captured fields.
func (m *PathMatcher) Match(p string) (map[string]string, bool) {
	parts := strings.Split(p, "/")
	if len(parts) < len(m.segments) || (!m.rest && len(parts) != len(m.segments)) {
		return nil, false
	}
	fields := make(map[string]string)
	for i, seg := range m.segments {
		part := parts[i]
		if seg.field == "" {
			if part != seg.literal {
				return nil, false
			}
			continue
		}
		if part == "" {
			return nil, false
		}
		fields[seg.field] = part
	}
	return fields, true
}

func (m *PathMatcher) String() string {
	return m.pattern
}
