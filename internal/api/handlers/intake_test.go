package handlers_test

import (
	"net/http"
	"testing"

	"github.com/hugh/hostel-hunter/internal/api/dto"
	"github.com/hugh/hostel-hunter/internal/database/models"
	"github.com/hugh/hostel-hunter/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntakeHandler_Contact(t *testing.T) {
	env := setupEnv(t)

	body := map[string]string{
		"first_name": "Wanjiru",
		"last_name":  "K",
		"email":      "Wanjiru@Example.com",
		"subject":    "booking_inquiry",
		"message":    "Do you have rooms for January?",
	}
	rr := env.do(t, "POST", "/api/v1/contact", body, "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var inq models.ContactInquiry
	testutil.ParseJSONResponse(t, rr, &inq)
	assert.Equal(t, "wanjiru@example.com", inq.Email)
	assert.Equal(t, models.InquirySubject("booking_inquiry"), inq.Subject)

	tests := []struct {
		name  string
		field string
		value string
	}{
		{"unknown subject", "subject", "gossip"},
		{"bad email", "email", "nobody"},
		{"missing message", "message", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := map[string]string{}
			for k, v := range body {
				bad[k] = v
			}
			bad[tt.field] = tt.value

			rr := env.do(t, "POST", "/api/v1/contact", bad, "")
			require.Equal(t, http.StatusBadRequest, rr.Code)
			var resp dto.ErrorResponse
			testutil.ParseJSONResponse(t, rr, &resp)
			assert.Contains(t, resp.Details, tt.field)
		})
	}
}

func TestIntakeHandler_PropertyListing(t *testing.T) {
	env := setupEnv(t)

	body := map[string]interface{}{
		"name":    "Otieno",
		"contact": "0712345678",
		"role":    "Landlord",
		"area":    "Main Gate",
		"rent":    4500,
	}

	t.Run("anonymous", func(t *testing.T) {
		rr := env.do(t, "POST", "/api/v1/property-listings", body, "")
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

		var listing models.PropertyListing
		testutil.ParseJSONResponse(t, rr, &listing)
		assert.Nil(t, listing.UserID)
		assert.Equal(t, models.ListingRole("landlord"), listing.Role)
	})

	t.Run("signed in", func(t *testing.T) {
		rr := env.do(t, "POST", "/api/v1/property-listings", body, env.Token)
		require.Equal(t, http.StatusCreated, rr.Code)

		var listing models.PropertyListing
		testutil.ParseJSONResponse(t, rr, &listing)
		require.NotNil(t, listing.UserID)
		assert.Equal(t, env.User.ID, *listing.UserID)
	})

	t.Run("contact must be email or phone", func(t *testing.T) {
		bad := map[string]interface{}{"name": "Otieno", "contact": "call me", "role": "tenant"}
		rr := env.do(t, "POST", "/api/v1/property-listings", bad, "")
		require.Equal(t, http.StatusBadRequest, rr.Code)
		var resp dto.ErrorResponse
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Equal(t, "contact", resp.Field)
	})
}
