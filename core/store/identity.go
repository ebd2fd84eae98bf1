package store

import "strings"

// Canonical normalizes a provider endpoint string by stripping a leading
// http:// or https:// scheme and a trailing slash, so different textual
// variants of the same host:port compare equal. Canonical identities are used
// for equality and bulk deletion only, never for display or RPC calls.
func Canonical(provider string) string {
	p := strings.TrimSpace(provider)
	if strings.HasPrefix(p, "http://") {
		p = p[len("http://"):]
	} else if strings.HasPrefix(p, "https://") {
		p = p[len("https://"):]
	}
	return strings.TrimRight(p, "/")
}

// Variants enumerates every stored spelling of a provider identity: the bare
// host, each scheme, and each of those with a trailing slash. Row matching
// goes through this set so a cleanup or read finds rows no matter which
// variant was originally written.
func Variants(provider string) []string {
	base := Canonical(provider)
	return []string{
		base,
		"http://" + base,
		"https://" + base,
		base + "/",
		"http://" + base + "/",
		"https://" + base + "/",
	}
}
