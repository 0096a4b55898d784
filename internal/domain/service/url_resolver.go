package service

import (
	"net/url"
	"sort"
	"strings"

	"github.com/wolfitem/news-enricher/internal/domain/model"
)

// ResolveURL turns reference into an absolute URL against base. Empty
// references, data: URIs and anything that does not end up with a scheme and
// a host are rejected.
func ResolveURL(reference, base string) (string, bool) {
	ref := strings.TrimSpace(reference)
	if ref == "" {
		return "", false
	}
	if len(ref) >= 5 && strings.EqualFold(ref[:5], "data:") {
		return "", false
	}

	baseURL, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", false
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return "", false
	}

	abs := baseURL.ResolveReference(refURL)
	if abs.Scheme == "" || abs.Host == "" {
		return "", false
	}
	return abs.String(), true
}

// ParseSrcset lists the resolvable candidates of a srcset attribute in
// declaration order. A candidate URL runs to the next whitespace, so commas
// inside it (data: payloads) do not split it. A descriptor ending in "w" gives
// the width; anything else counts as 0.
func ParseSrcset(srcset, base string) []model.ImageCandidate {
	var candidates []model.ImageCandidate
	for _, entry := range splitSrcset(srcset) {
		href, ok := ResolveURL(entry.ref, base)
		if !ok {
			continue
		}

		width := 0
		if len(entry.descriptors) > 0 && strings.HasSuffix(entry.descriptors[0], "w") {
			width = leadingInt(entry.descriptors[0])
		}
		candidates = append(candidates, model.ImageCandidate{Href: href, Width: width})
	}
	return candidates
}

type srcsetEntry struct {
	ref         string
	descriptors []string
}

// splitSrcset tokenises srcset the way browsers do: skip separators, read the
// URL up to whitespace, strip trailing commas from it, otherwise read
// descriptors up to the next comma.
func splitSrcset(srcset string) []srcsetEntry {
	var entries []srcsetEntry
	rest := srcset
	for {
		rest = strings.TrimLeft(rest, " \t\n\r\f,")
		if rest == "" {
			return entries
		}

		end := strings.IndexAny(rest, " \t\n\r\f")
		if end < 0 {
			end = len(rest)
		}
		ref := rest[:end]
		rest = rest[end:]

		var descriptors string
		if strings.HasSuffix(ref, ",") {
			ref = strings.TrimRight(ref, ",")
		} else if comma := strings.IndexByte(rest, ','); comma >= 0 {
			descriptors, rest = rest[:comma], rest[comma+1:]
		} else {
			descriptors, rest = rest, ""
		}

		entries = append(entries, srcsetEntry{ref: ref, descriptors: strings.Fields(descriptors)})
	}
}

// SelectBestFromSrcset returns the widest candidate; equal widths keep
// declaration order.
func SelectBestFromSrcset(srcset, base string) (string, bool) {
	candidates := ParseSrcset(srcset, base)
	if len(candidates) == 0 {
		return "", false
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Width > candidates[j].Width
	})
	return candidates[0].Href, true
}

// leadingInt parses the decimal digits at the start of s.
func leadingInt(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
		if n > 1<<30 {
			return 1 << 30
		}
	}
	return n
}
