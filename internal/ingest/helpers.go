package ingest

import (
	"net/url"
	"strings"
)

// normalizeSpace collapses multiple spaces into one and trims the string.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// cleanText normalizes whitespace (alias for normalizeSpace)
func cleanText(s string) string {
	return normalizeSpace(s)
}

// appendUnique appends a string to a slice if it doesn't already exist (case-insensitive).
func appendUnique(list []string, v string) []string {
	vClean := strings.TrimSpace(v)
	if vClean == "" {
		return list
	}

	for _, existing := range list {
		if strings.EqualFold(existing, vClean) {
			return list
		}
	}
	return append(list, vClean)
}

func mergeUniqueFold(dst []string, items []string) []string {
	for _, v := range items {
		dst = appendUnique(dst, v)
	}
	return dst
}

// resolveURL resolves href against base. Absolute hrefs are returned as-is.
func resolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		return CanonicalizeURL(ref.String())
	}
	b, err := url.Parse(base)
	if err != nil || b.Host == "" {
		return href
	}
	return CanonicalizeURL(b.ResolveReference(ref).String())
}

// CanonicalizeURL removes common tracking parameters to ensure stable URLs.
func CanonicalizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for k := range q {
		if strings.HasPrefix(k, "utm_") {
			q.Del(k)
		}
	}
	for _, p := range []string{"fbclid", "gclid", "mc_cid", "mc_eid", "mkt_tok"} {
		q.Del(p)
	}

	u.RawQuery = q.Encode()
	return u.String()
}
