package presence

import "storefront-realtime/domain"

// ComputeCounts returns the number of viewers per page. Entries without a page
// are not counted and pages with no viewers are absent.
func ComputeCounts(entries []domain.Entry) map[string]int {
	counts := make(map[string]int)
	for _, e := range entries {
		if e.Page == "" {
			continue
		}
		counts[e.Page]++
	}
	return counts
}

// CountFor returns the number of entries on page.
func CountFor(entries []domain.Entry, page string) int {
	n := 0
	for _, e := range entries {
		if page != "" && e.Page == page {
			n++
		}
	}
	return n
}
