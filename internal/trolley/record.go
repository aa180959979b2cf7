// Package trolley extracts product records from trolley.co.uk search-results
// markup. The site's HTML layout is an unversioned external contract, so all
// selector knowledge lives here and nowhere else.
package trolley

// BaseURL is the aggregator site root used to resolve relative product links.
const BaseURL = "https://www.trolley.co.uk"

// StoreLabel is the fixed store attribution for every record. Trolley
// aggregates multiple retailers but per-retailer attribution is only present
// in dynamically rendered content, which a static fetch never sees.
const StoreLabel = "Trolley.co.uk"

// ProductRecord is a single product row from a search-results page.
// It is a plain value; two records are the same product listing iff their
// fields are equal. Price keeps the currency prefix (e.g. "£1.85") and is
// empty when the page showed no parseable price.
type ProductRecord struct {
	Name  string `json:"name"`
	Price string `json:"price,omitempty"`
	Brand string `json:"brand,omitempty"`
	Size  string `json:"size,omitempty"`
	Store string `json:"store"`
	URL   string `json:"url"`
}
