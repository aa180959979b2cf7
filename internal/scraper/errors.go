package scraper

import "fmt"

// FetchError reports a failed search fetch: network error, timeout, or a
// non-success upstream status. BlockedBy names the bot-protection vendor
// when the response matched a known challenge page.
type FetchError struct {
	URL        string
	StatusCode int
	BlockedBy  string
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.BlockedBy != "":
		return fmt.Sprintf("fetch %s: blocked by %s (status %d)", e.URL, e.BlockedBy, e.StatusCode)
	case e.StatusCode != 0:
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
