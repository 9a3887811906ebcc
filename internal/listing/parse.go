package listing

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/jmylchreest/truckscout/internal/logger"
	"github.com/jmylchreest/truckscout/internal/normalize"
)

// Selectors for the detail page and its AJAX fragments.
const (
	idSelector          = "section#top-data h1[data-listing-id], section#top-data h1 [data-listing-id]"
	titleSelector       = "section#top-data div[class='d-flex']"
	priceSelector       = "section#top-data div[class='fs-5 max-content my-1 word-break fw-bold']"
	propertiesSelector  = "div#properties dl"
	descriptionSelector = "div#description div[class='col beschreibung']"
	phoneSelector       = "ul[class='list-group list-group-flush'] a"
	sliderSelector      = "div[class='keen-slider keen-slider-uninitialized']"
)

// Property labels, matched case-insensitively as substrings.
const (
	labelMileage = "kilometerstand"
	labelPower   = "leistung"
	labelColor   = "farbe"
)

// hdvMarker identifies the high-definition image variant.
const hdvMarker = "hdv"

// Parser reads listing fields from HTML.
type Parser struct {
	Numbers normalize.Parser
}

// NewParser creates a parser; a nil numbers parser means locale-aware parsing.
func NewParser(numbers normalize.Parser) *Parser {
	if numbers == nil {
		numbers = normalize.Locale{}
	}
	return &Parser{Numbers: numbers}
}

// Parse extracts id, title, price, properties and description from a detail
// page. Href, phone and images are left for the Extractor.
func (p *Parser) Parse(body string) (Record, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return Record{}, err
	}

	var rec Record

	rawID, ok := doc.Find(idSelector).First().Attr("data-listing-id")
	rawID = strings.TrimSpace(rawID)
	if !ok || rawID == "" {
		return Record{}, &MissingFieldError{Field: "id"}
	}
	rec.ID, err = strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return Record{}, &normalize.MalformedFieldError{Field: "id", Raw: rawID}
	}

	rec.Title = parseTitle(doc.Find(titleSelector))
	rec.Price = p.parsePrice(rec.ID, doc.Find(priceSelector))
	p.parseProperties(&rec, doc.Find(propertiesSelector))
	rec.Description = strings.TrimSpace(strings.Join(textNodes(doc.Find(descriptionSelector)), ""))

	return rec, nil
}

// parseTitle joins the heading fragments after the leading category label.
func parseTitle(sel *goquery.Selection) string {
	var parts []string
	for _, t := range textNodes(sel) {
		if t = strings.TrimSpace(t); t != "" {
			parts = append(parts, t)
		}
	}
	if len(parts) < 2 {
		return ""
	}
	return strings.Join(parts[1:], " ")
}

func (p *Parser) parsePrice(id int64, sel *goquery.Selection) int64 {
	raw := "0"
	if sel.Length() > 0 {
		if t := strings.TrimSpace(sel.First().Text()); t != "" {
			raw = t
		}
	}
	price, err := p.Numbers.Price(raw)
	if err != nil {
		logger.Warn("price not parseable, using 0", "id", id, "error", err)
		return 0
	}
	return price
}

// parseProperties walks the technical data rows. A later matching row
// overwrites an earlier one; a row that fails to parse leaves the field
// unchanged.
func (p *Parser) parseProperties(rec *Record, dls *goquery.Selection) {
	dls.Find("dt").Each(func(_ int, dt *goquery.Selection) {
		dd := dt.NextFiltered("dd")
		if dd.Length() == 0 {
			return
		}
		label := strings.ToLower(strings.TrimSpace(dt.Text()))
		value := strings.TrimSpace(dd.Text())

		switch {
		case strings.Contains(label, labelMileage):
			if v, err := p.Numbers.Mileage(value); err == nil {
				rec.Mileage = v
			} else {
				logger.Warn("mileage not parseable", "id", rec.ID, "error", err)
			}
		case strings.Contains(label, labelPower):
			if v, err := p.Numbers.Power(value); err == nil {
				rec.Power = v
			} else {
				logger.Warn("power not parseable", "id", rec.ID, "error", err)
			}
		case strings.Contains(label, labelColor):
			rec.Color = value
		}
	})
}

// ParsePhone returns the first contact number of the phone fragment, or ""
// when there is none.
func ParsePhone(body string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(doc.Find(phoneSelector).First().Text()), nil
}

// ParseImageURLs returns up to limit high-definition image URLs from the
// gallery fragment, in page order. A negative limit means no limit.
func ParseImageURLs(body string, limit int) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, err
	}

	slider := doc.Find(sliderSelector)
	srcs := slider.Filter("[src]").AddSelection(slider.Find("[src]"))

	urls := make([]string, 0)
	srcs.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if limit >= 0 && len(urls) >= limit {
			return false
		}
		src, _ := s.Attr("src")
		if strings.Contains(src, hdvMarker) {
			urls = append(urls, src)
		}
		return true
	})
	return urls, nil
}

// textNodes returns the text nodes below sel in document order. Nodes
// reachable from several matches are returned once; script and style
// contents are skipped.
func textNodes(sel *goquery.Selection) []string {
	seen := make(map[*html.Node]bool)
	var out []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if seen[n] {
			return
		}
		seen[n] = true
		switch n.Type {
		case html.TextNode:
			out = append(out, n.Data)
			return
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return out
}
