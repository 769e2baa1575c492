package classify

import (
	"strings"
)

// pattern matches a route by path, optionally bound to one HTTP method.
// Supported forms: "/accounts/login", "/static/*", "POST:/api/jobs", "POST:/api/*".
// A trailing '*' turns the path part into a prefix match.
type pattern struct {
	method string
	path   string
	prefix bool
}

func parsePattern(raw string) pattern {
	method := ""
	path := strings.TrimSpace(raw)
	qualifier, rest, found := strings.Cut(path, ":")
	if found && isMethodQualifier(qualifier) {
		method = strings.ToUpper(qualifier)
		path = rest
	}
	patternLen := len(path)
	if patternLen > 0 && path[patternLen-1] == '*' {
		return pattern{method: method, path: path[:patternLen-1], prefix: true}
	}
	return pattern{method: method, path: path}
}

func (p pattern) match(path string, method string) bool {
	if p.method != "" && !strings.EqualFold(p.method, method) {
		return false
	}
	if p.prefix {
		return strings.HasPrefix(path, p.path)
	}
	return strings.EqualFold(path, p.path)
}

func isMethodQualifier(value string) bool {
	if value == "" {
		return false
	}
	for _, char := range value {
		isLetter := (char >= 'A' && char <= 'Z') || (char >= 'a' && char <= 'z')
		if !isLetter {
			return false
		}
	}
	return true
}

// PatternList answers whether any of its patterns matches a path.
type PatternList struct {
	patterns []pattern
}

func NewPatternList(raw []string) PatternList {
	patterns := make([]pattern, 0, len(raw))
	for _, value := range raw {
		if strings.TrimSpace(value) == "" {
			continue
		}
		patterns = append(patterns, parsePattern(value))
	}
	return PatternList{patterns: patterns}
}

func (l PatternList) Match(path string, method string) bool {
	for _, p := range l.patterns {
		if p.match(path, method) {
			return true
		}
	}
	return false
}
