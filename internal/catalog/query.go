package catalog

import (
	"strconv"
	"strings"

	"github.com/hugh/hostel-hunter/internal/database/models"
	"github.com/hugh/hostel-hunter/internal/store"
)

// priceBand is how far a numeric search term may be from a hostel's price
// and still match.
const priceBand = 500

// ParseQuery splits free text into search terms. Every term must match;
// within a term, any text column, a category label or (for numbers) a
// nearby price is enough.
func ParseQuery(q string) []store.SearchTerm {
	fields := strings.Fields(q)
	terms := make([]store.SearchTerm, 0, len(fields))
	for _, f := range fields {
		term := store.SearchTerm{
			Text:       f,
			Categories: models.CategoriesMatchingLabel(f),
		}
		if n, ok := parsePrice(f); ok {
			low, high := n-priceBand, n+priceBand
			term.PriceLow, term.PriceHigh = &low, &high
		}
		terms = append(terms, term)
	}
	return terms
}

func parsePrice(s string) (int64, bool) {
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
