package accounts

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/hugh/hostel-hunter/internal/store"
)

const fallbackHandle = "user"

var handleStrip = regexp.MustCompile(`[^A-Za-z0-9_]`)

// BaseHandle derives the handle stem from an email's local part.
func BaseHandle(email string) string {
	local := email
	if i := strings.LastIndex(email, "@"); i >= 0 {
		local = email[:i]
	}
	base := handleStrip.ReplaceAllString(local, "")
	if base == "" {
		return fallbackHandle
	}
	return base
}

// GenerateHandle probes base, base1, base2, ... and returns the first
// candidate no account holds. The probe is advisory; the unique index on
// users.username has the final say.
func GenerateHandle(ctx context.Context, users store.Users, email string) (string, error) {
	base := BaseHandle(email)
	candidate := base
	for i := 1; ; i++ {
		taken, err := users.UsernameExists(ctx, candidate, uuid.Nil)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + strconv.Itoa(i)
	}
}
