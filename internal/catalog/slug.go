package catalog

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/hugh/hostel-hunter/internal/store"
)

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify builds the URL slug for a hostel from its name and location,
// e.g. "Sunset Hostel", "Gate A" -> "sunset-hostel-gate-a".
func Slugify(name, location string) string {
	s := strings.ToLower(strings.TrimSpace(name + " " + location))
	s = slugStrip.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "hostel"
	}
	return s
}

// GenerateSlug returns base, base-1, base-2, ... whichever is free first.
// Like handle generation, the probe is advisory and the unique index on
// hostels.slug decides.
func GenerateSlug(ctx context.Context, hostels store.Hostels, base string) (string, error) {
	candidate := base
	for i := 1; ; i++ {
		taken, err := hostels.SlugExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(i)
	}
}
