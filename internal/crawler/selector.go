package crawler

import (
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Selectors for the search result pages.
const (
	PaginationSelector = "section#offer-list-pagination li[class*='page-item'] a"
	ItemSelector       = "section#offer-list section[class='grid-body'] > a"
)

// LinkSelector extracts hrefs from HTML content.
type LinkSelector struct {
	CSSSelector string         // CSS selector for anchors
	URLPattern  *regexp.Regexp // Optional filter on the raw href
}

// NewLinkSelector creates a link selector.
func NewLinkSelector(cssSelector string, urlPattern string) (*LinkSelector, error) {
	ls := &LinkSelector{
		CSSSelector: cssSelector,
	}

	if urlPattern != "" {
		pattern, err := regexp.Compile(urlPattern)
		if err != nil {
			return nil, err
		}
		ls.URLPattern = pattern
	}

	return ls, nil
}

// ExtractLinks returns the href of every matching element in document
// order. Hrefs are returned as written in the page (usually site-relative);
// duplicates are kept.
func (ls *LinkSelector) ExtractLinks(html string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	selector := ls.CSSSelector
	if selector == "" {
		selector = "a[href]"
	}

	var links []string
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}

		// Skip fragments and javascript links
		if strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			return
		}

		if ls.URLPattern != nil && !ls.URLPattern.MatchString(href) {
			return
		}

		links = append(links, href)
	})

	return links, nil
}

// ScanPaginationLinks returns the result page hrefs of a search page.
// The first link points at the current page; it is dropped together with
// any repetition of it. The rest is deduplicated and sorted
// lexicographically, so "?page=10" sorts before "?page=2".
func ScanPaginationLinks(html string) ([]string, error) {
	ls := &LinkSelector{CSSSelector: PaginationSelector}
	all, err := ls.ExtractLinks(html)
	if err != nil {
		return nil, err
	}
	if len(all) <= 1 {
		return []string{}, nil
	}

	seen := map[string]bool{all[0]: true}
	unique := make([]string, 0, len(all)-1)
	for _, href := range all[1:] {
		if seen[href] {
			continue
		}
		seen[href] = true
		unique = append(unique, href)
	}
	sort.Strings(unique)
	return unique, nil
}

// ScanItemLinks returns the listing detail hrefs of a result page in
// document order.
func ScanItemLinks(html string) ([]string, error) {
	ls := &LinkSelector{CSSSelector: ItemSelector}
	return ls.ExtractLinks(html)
}
