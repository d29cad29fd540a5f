package license

import "strings"

// NormalizeDomain reduces a URL or host to the bare domain stored on a
// license: lowercased, without scheme, credentials, "www." prefix, port,
// path, query, fragment or trailing dot. It returns "" when nothing is left.
func NormalizeDomain(raw string) string {
	d := strings.ToLower(strings.TrimSpace(raw))

	if i := strings.Index(d, "://"); i >= 0 {
		d = d[i+3:]
	}
	d = strings.TrimPrefix(d, "//")

	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	if i := strings.LastIndex(d, "@"); i >= 0 {
		d = d[i+1:]
	}

	if strings.HasPrefix(d, "[") {
		// IPv6 literal
		if i := strings.Index(d, "]"); i >= 0 {
			d = d[1:i]
		}
	} else if i := strings.LastIndex(d, ":"); i >= 0 {
		d = d[:i]
	}

	d = strings.TrimSuffix(d, ".")
	d = strings.TrimPrefix(d, "www.")

	return d
}
