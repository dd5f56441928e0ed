package routing

import "strings"

// PathPattern matches paths with {name} segments. A segment may carry a
// custom-method suffix, as in /reviewers/{id}:move.
type PathPattern struct {
	raw      string
	segments []patternSegment
}

type patternSegment struct {
	literal string
	param   string
	suffix  string
}

func parsePathPattern(raw string) (PathPattern, bool) {
	if !strings.Contains(raw, "{") {
		return PathPattern{}, false
	}
	if raw == "" || raw[0] != '/' {
		return PathPattern{}, false
	}

	parts := splitPathSegments(raw)
	segs := make([]patternSegment, 0, len(parts))
	for _, s := range parts {
		if s == "" {
			return PathPattern{}, false
		}
		if !strings.Contains(s, "{") && !strings.Contains(s, "}") {
			segs = append(segs, patternSegment{literal: s})
			continue
		}
		seg, ok := parseParamSegment(s)
		if !ok {
			return PathPattern{}, false
		}
		segs = append(segs, seg)
	}
	return PathPattern{raw: raw, segments: segs}, true
}

func parseParamSegment(s string) (patternSegment, bool) {
	if !strings.HasPrefix(s, "{") {
		return patternSegment{}, false
	}
	end := strings.Index(s, "}")
	if end < 2 {
		return patternSegment{}, false
	}
	name := s[1:end]
	suffix := s[end+1:]
	if strings.ContainsAny(name, "{}:") || strings.ContainsAny(suffix, "{}") {
		return patternSegment{}, false
	}
	if suffix != "" && (!strings.HasPrefix(suffix, ":") || len(suffix) == 1) {
		return patternSegment{}, false
	}
	return patternSegment{param: name, suffix: suffix}, true
}

func (p PathPattern) String() string { return p.raw }

func (p PathPattern) Match(path string) bool {
	_, ok := p.Extract(path)
	return ok
}

// Extract matches path and returns the values of the pattern's parameters.
func (p PathPattern) Extract(path string) (map[string]string, bool) {
	if p.raw == "" {
		return nil, false
	}
	in := splitPathSegments(path)
	if len(in) != len(p.segments) {
		return nil, false
	}
	params := make(map[string]string)
	for i, want := range p.segments {
		got := in[i]
		if got == "" {
			return nil, false
		}
		if want.param == "" {
			if got != want.literal {
				return nil, false
			}
			continue
		}
		if want.suffix != "" {
			if !strings.HasSuffix(got, want.suffix) {
				return nil, false
			}
			got = strings.TrimSuffix(got, want.suffix)
		}
		if got == "" || strings.Contains(got, ":") {
			return nil, false
		}
		params[want.param] = got
	}
	return params, true
}

func splitPathSegments(path string) []string {
	path = strings.TrimSpace(path)
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
