package trolley

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// selectorSet describes one known page layout. Strategies are tried in order
// until one matches any containers, so a site redesign degrades to the next
// entry instead of silently returning nothing everywhere.
type selectorSet struct {
	container string
	name      string // fallback for the anchor title attribute
	price     string
	brand     string
	size      string
}

var strategies = []selectorSet{
	{
		container: "div.product-item",
		name:      "div._desc",
		price:     "div._price",
		brand:     "div._brand",
		size:      "div._size",
	},
	// Pre-2023 listing layout, kept as a fallback.
	{
		container: "div.product-listing div.product",
		name:      "div.product-desc",
		price:     "div.product-price",
		brand:     "div.product-brand",
		size:      "div.product-size",
	},
}

var priceRe = regexp.MustCompile(`£\d+\.\d{2}`)

// Extract parses search-results HTML and returns up to maxResults product
// records in page order. A container missing a name or link is skipped; a
// missing price keeps the record with Price left empty. Zero matching
// containers is a valid empty result, not an error: the caller can then tell
// "page had no products" apart from "fetch failed".
func Extract(body []byte, maxResults int) ([]ProductRecord, error) {
	if maxResults <= 0 {
		return nil, fmt.Errorf("max results must be positive, got %d", maxResults)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	base, err := url.Parse(BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	for _, sel := range strategies {
		containers := doc.Find(sel.container)
		if containers.Length() == 0 {
			continue
		}

		records := make([]ProductRecord, 0, maxResults)
		containers.EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if rec, ok := extractRecord(s, sel, base); ok {
				records = append(records, rec)
			}
			return len(records) < maxResults
		})
		return records, nil
	}

	// No strategy matched anything in the whole document.
	return []ProductRecord{}, nil
}

func extractRecord(s *goquery.Selection, sel selectorSet, base *url.URL) (ProductRecord, bool) {
	link := s.Find("a").First()
	href, ok := link.Attr("href")
	if !ok || href == "" {
		return ProductRecord{}, false
	}

	name := strings.TrimSpace(link.AttrOr("title", ""))
	if name == "" {
		name = strings.TrimSpace(s.Find(sel.name).First().Text())
	}
	if name == "" {
		return ProductRecord{}, false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ProductRecord{}, false
	}

	return ProductRecord{
		Name:  name,
		Price: priceRe.FindString(s.Find(sel.price).First().Text()),
		Brand: strings.TrimSpace(s.Find(sel.brand).First().Text()),
		Size:  strings.TrimSpace(s.Find(sel.size).First().Text()),
		Store: StoreLabel,
		URL:   base.ResolveReference(ref).String(),
	}, true
}
