// Package crawler scans search result pages for pagination and listing
// links and decides which listings a run visits.
package crawler

import (
	"net/url"
)

// LinkSet is an insertion-ordered set of hrefs.
type LinkSet struct {
	links []string
	seen  map[string]bool
}

// NewLinkSet creates an empty set.
func NewLinkSet() *LinkSet {
	return &LinkSet{
		links: make([]string, 0),
		seen:  make(map[string]bool),
	}
}

// Add inserts href unless an equivalent href is already present.
// It reports whether the set changed.
func (s *LinkSet) Add(href string) bool {
	normalized := normalizeHref(href)
	if normalized == "" {
		return false
	}
	if s.seen[normalized] {
		return false
	}
	s.seen[normalized] = true
	s.links = append(s.links, normalized)
	return true
}

// AddAll inserts every href and returns how many were new.
func (s *LinkSet) AddAll(hrefs []string) int {
	added := 0
	for _, h := range hrefs {
		if s.Add(h) {
			added++
		}
	}
	return added
}

// Len returns the number of hrefs.
func (s *LinkSet) Len() int {
	return len(s.links)
}

// Contains reports whether href is in the set.
func (s *LinkSet) Contains(href string) bool {
	return s.seen[normalizeHref(href)]
}

// Links returns a copy of the hrefs in insertion order.
func (s *LinkSet) Links() []string {
	out := make([]string, len(s.links))
	copy(out, s.links)
	return out
}

// normalizeHref drops the fragment. Unparseable hrefs normalize to "".
func normalizeHref(href string) string {
	if href == "" {
		return ""
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	parsed.Fragment = ""
	return parsed.String()
}
