package catalog

import (
	"context"
	"strings"

	"github.com/hugh/hostel-hunter/internal/apperr"
	"github.com/hugh/hostel-hunter/internal/database/models"
	"github.com/hugh/hostel-hunter/internal/store"
)

const (
	DefaultPerPage = 12
	MaxPerPage     = 100
)

type Bucket string

const (
	BucketRecent     Bucket = "recent"
	BucketSingles    Bucket = "singles"
	BucketApartments Bucket = "apartments"
)

// Buckets lists the result groups in display order.
func Buckets() []Bucket {
	return []Bucket{BucketRecent, BucketSingles, BucketApartments}
}

// categories returns the categories a bucket draws from; nil means all.
func (b Bucket) categories() []models.HostelCategory {
	switch b {
	case BucketSingles:
		return []models.HostelCategory{models.CategorySingle, models.CategoryBedsitter}
	case BucketApartments:
		return []models.HostelCategory{models.CategoryOneBedroom, models.CategoryTwoBedroom}
	default:
		return nil
	}
}

// Filters are structured constraints applied on top of the free-text query.
type Filters struct {
	Category models.HostelCategory
	Location string
	MinPrice *int64
	MaxPrice *int64
}

type PageRequest struct {
	Page    int
	PerPage int
}

func (p PageRequest) normalized() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	return p
}

type SearchInput struct {
	Query   string
	Filters Filters
	// Pages holds the requested page per bucket. Missing buckets get the
	// first page.
	Pages map[Bucket]PageRequest
}

type BucketPage struct {
	Bucket     Bucket          `json:"bucket"`
	Hostels    []HostelSummary `json:"hostels"`
	Page       int             `json:"page"`
	PerPage    int             `json:"per_page"`
	Total      int64           `json:"total"`
	TotalPages int             `json:"total_pages"`
}

type SearchResult struct {
	Query   string       `json:"query"`
	Buckets []BucketPage `json:"buckets"`
}

// Bucket returns the page for b, or nil.
func (r *SearchResult) Bucket(b Bucket) *BucketPage {
	for i := range r.Buckets {
		if r.Buckets[i].Bucket == b {
			return &r.Buckets[i]
		}
	}
	return nil
}

// Search runs the query once per bucket. Only hostels with free slots are
// returned, newest first. Buckets are queried independently, so a slot
// taken mid-search may show in one bucket and not another.
func (s *Service) Search(ctx context.Context, in SearchInput) (*SearchResult, error) {
	f := in.Filters
	if f.Category != "" && !f.Category.Valid() {
		return nil, apperr.Validation("category", "Choose a valid category")
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return nil, apperr.Validation("min_price", "Minimum price cannot exceed maximum price")
	}

	query := strings.TrimSpace(in.Query)
	terms := ParseQuery(query)

	result := &SearchResult{Query: query}
	for _, b := range Buckets() {
		page := in.Pages[b].normalized()
		bp := BucketPage{Bucket: b, Page: page.Page, PerPage: page.PerPage, Hostels: []HostelSummary{}}

		cats, ok := bucketCategories(b, f.Category)
		if ok {
			hostels, total, err := s.store.SearchHostels(ctx, store.HostelQuery{
				Terms:         terms,
				Categories:    cats,
				Location:      strings.TrimSpace(f.Location),
				MinPrice:      f.MinPrice,
				MaxPrice:      f.MaxPrice,
				OnlyAvailable: true,
				Offset:        (page.Page - 1) * page.PerPage,
				Limit:         page.PerPage,
			})
			if err != nil {
				return nil, err
			}
			summaries, err := s.summarize(ctx, hostels)
			if err != nil {
				return nil, err
			}
			bp.Hostels = summaries
			bp.Total = total
			bp.TotalPages = int((total + int64(page.PerPage) - 1) / int64(page.PerPage))
		}
		result.Buckets = append(result.Buckets, bp)
	}
	return result, nil
}

// bucketCategories intersects the bucket's categories with the category
// filter. It reports false when the intersection is empty.
func bucketCategories(b Bucket, filter models.HostelCategory) ([]models.HostelCategory, bool) {
	group := b.categories()
	if filter == "" {
		return group, true
	}
	if group == nil {
		return []models.HostelCategory{filter}, true
	}
	for _, c := range group {
		if c == filter {
			return []models.HostelCategory{filter}, true
		}
	}
	return nil, false
}
