package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/hugh/hostel-hunter/internal/apperr"
	"github.com/hugh/hostel-hunter/internal/database/models"
)

// Factor weights for the overall recommendation.
const (
	weightPrice        = 3
	weightRating       = 2
	weightAmenities    = 1
	weightAvailability = 1
)

// Winner identifies which side of a comparison is better on one factor.
type Winner int

const (
	Tie Winner = iota
	First
	Second
)

func pick[T int | float64](a, b T, lowerWins bool) Winner {
	if lowerWins {
		a, b = b, a
	}
	switch {
	case a > b:
		return First
	case b > a:
		return Second
	default:
		return Tie
	}
}

type Comparison struct {
	First          HostelSummary `json:"first"`
	Second         HostelSummary `json:"second"`
	MonthlyFirst   float64       `json:"monthly_first"`
	MonthlySecond  float64       `json:"monthly_second"`
	Price          Winner        `json:"price_winner"`
	Rating         Winner        `json:"rating_winner"`
	Amenities      Winner        `json:"amenity_winner"`
	Availability   Winner        `json:"availability_winner"`
	ScoreFirst     int           `json:"score_first"`
	ScoreSecond    int           `json:"score_second"`
	Recommendation string        `json:"recommendation"`
}

// Compare weighs two hostels against each other. Prices are compared per
// month regardless of billing cycle.
func (s *Service) Compare(ctx context.Context, slugA, slugB string) (*Comparison, error) {
	if slugA == "" || slugB == "" {
		return nil, apperr.Validation("hostels", "Choose two hostels to compare")
	}
	if slugA == slugB {
		return nil, apperr.Validation("hostels", "Choose two different hostels to compare")
	}
	a, err := s.getBySlug(ctx, slugA)
	if err != nil {
		return nil, err
	}
	b, err := s.getBySlug(ctx, slugB)
	if err != nil {
		return nil, err
	}
	pair, err := s.summarize(ctx, []models.Hostel{*a, *b})
	if err != nil {
		return nil, err
	}

	c := &Comparison{
		First:         pair[0],
		Second:        pair[1],
		MonthlyFirst:  a.MonthlyPrice(),
		MonthlySecond: b.MonthlyPrice(),
	}
	c.Price = pick(c.MonthlyFirst, c.MonthlySecond, true)
	c.Rating = pick(pair[0].AverageRating, pair[1].AverageRating, false)
	c.Amenities = pick(len(a.Amenities), len(b.Amenities), false)
	c.Availability = pick(a.AvailableSlots, b.AvailableSlots, false)

	c.ScoreFirst = c.score(First)
	c.ScoreSecond = c.score(Second)
	c.Recommendation = c.recommend()
	return c, nil
}

func (c *Comparison) score(side Winner) int {
	total := 0
	if c.Price == side {
		total += weightPrice
	}
	if c.Rating == side {
		total += weightRating
	}
	if c.Amenities == side {
		total += weightAmenities
	}
	if c.Availability == side {
		total += weightAvailability
	}
	return total
}

func (c *Comparison) recommend() string {
	var side Winner
	var name string
	switch {
	case c.ScoreFirst > c.ScoreSecond:
		side, name = First, c.First.Name
	case c.ScoreSecond > c.ScoreFirst:
		side, name = Second, c.Second.Name
	default:
		return fmt.Sprintf("Both %s and %s are quite comparable. Your choice might depend on personal preferences like location convenience or specific amenities that matter most to you.",
			c.First.Name, c.Second.Name)
	}

	var reasons []string
	if c.Price == side {
		reasons = append(reasons, "better value for money")
	}
	if c.Rating == side {
		reasons = append(reasons, "higher rating from residents")
	}
	if c.Amenities == side {
		reasons = append(reasons, "more amenities")
	}
	if c.Availability == side {
		reasons = append(reasons, "more availability")
	}
	return fmt.Sprintf("I recommend %s. This hostel offers %s, making it the better choice overall.", name, joinReasons(reasons))
}

func joinReasons(reasons []string) string {
	if len(reasons) <= 1 {
		return strings.Join(reasons, "")
	}
	return strings.Join(reasons[:len(reasons)-1], ", ") + " and " + reasons[len(reasons)-1]
}
