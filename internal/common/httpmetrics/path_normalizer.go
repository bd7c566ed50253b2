package httpmetrics

import "strings"

// UnmatchedPath labels requests outside the route table so that scanners
// probing arbitrary URLs cannot grow label cardinality.
const UnmatchedPath = "/unmatched"

var routes = map[string]struct{}{
	"/health":              {},
	"/metrics":             {},
	"/api/auth/login":      {},
	"/api/auth/refresh":    {},
	"/api/auth/logout":     {},
	"/api/auth/logout-all": {},
	"/api/auth/me":         {},
}

// NormalizePath maps a request path to its metric label: a known route with
// any trailing slash removed, or UnmatchedPath.
func NormalizePath(path string) string {
	if path != "/" {
		path = strings.TrimRight(path, "/")
	}
	if _, ok := routes[path]; ok {
		return path
	}
	return UnmatchedPath
}
