// Package address decides whether a string is a usable SMTP address. The
// checks are purely syntactic heuristics; no DNS or deliverability lookups
// are made.
package address

import "strings"

// directoryMarkers identify X.400/Exchange legacy addresses that show up in
// old address books and PST exports instead of SMTP addresses. They are
// matched against the upper-cased candidate.
var directoryMarkers = []string{
	"/O=",
	"/OU=",
	"/CN=",
	"MIDBOROMGMNT",
	"FIRST ADMINISTRATIVE GROUP",
	"RECIPIENTS",
}

// Valid reports whether candidate looks like a usable email address.
func Valid(candidate string) bool {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" || strings.HasPrefix(candidate, "/") {
		return false
	}
	if !strings.Contains(candidate, "@") || !strings.Contains(candidate, ".") {
		return false
	}

	upper := strings.ToUpper(candidate)
	for _, marker := range directoryMarkers {
		if strings.Contains(upper, marker) {
			return false
		}
	}

	parts := strings.Split(candidate, "@")
	if len(parts) != 2 {
		return false
	}
	local, domain := parts[0], parts[1]
	if local == "" || domain == "" || !strings.Contains(domain, ".") {
		return false
	}
	return true
}
