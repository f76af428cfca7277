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

func TestAdminHandler_StaffOnly(t *testing.T) {
	env := setupEnv(t)

	rr := env.do(t, "GET", "/api/v1/admin/invitations", nil, env.Token)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = env.do(t, "GET", "/api/v1/admin/invitations", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = env.do(t, "GET", "/api/v1/admin/invitations", nil, env.StaffToken)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAdminHandler_HostelLifecycle(t *testing.T) {
	env := setupEnv(t)

	body := map[string]interface{}{
		"name":            "Sunrise Court",
		"description":     "Bright rooms",
		"address":         "12 Gate Road",
		"location":        "Main Gate",
		"category":        "bedsitter",
		"price":           7000,
		"billing_cycle":   "monthly",
		"available_slots": 2,
		"phone":           "+254712345678",
		"amenities":       []string{"wifi", "water"},
	}
	rr := env.do(t, "POST", "/api/v1/admin/hostels", body, env.StaffToken)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var hostel models.Hostel
	testutil.ParseJSONResponse(t, rr, &hostel)
	assert.Equal(t, "sunrise-court-main-gate", hostel.Slug)

	rr = env.do(t, "PUT", "/api/v1/admin/hostels/"+hostel.Slug, map[string]interface{}{"price": 7500}, env.StaffToken)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var updated models.Hostel
	testutil.ParseJSONResponse(t, rr, &updated)
	assert.EqualValues(t, 7500, updated.Price)
	assert.Equal(t, hostel.Slug, updated.Slug, "slugs survive edits")

	rr = env.do(t, "PUT", "/api/v1/admin/hostels/"+hostel.Slug, map[string]interface{}{"price": -1}, env.StaffToken)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, "DELETE", "/api/v1/admin/hostels/"+hostel.Slug, nil, env.StaffToken)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = env.do(t, "GET", "/api/v1/hostels/"+hostel.Slug, nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAdminHandler_CreateInvitation(t *testing.T) {
	env := setupEnv(t)
	hostel := testutil.CreateTestHostel(t, env.DB, testutil.WithSlots(1))

	body := map[string]string{
		"hostel":    hostel.Slug,
		"full_name": "Akinyi O",
		"email":     "akinyi@example.com",
		"phone":     "+254712345678",
	}
	rr := env.do(t, "POST", "/api/v1/admin/invitations", body, env.StaffToken)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp dto.InvitationResponse
	testutil.ParseJSONResponse(t, rr, &resp)
	require.NotNil(t, resp.Invitation)
	assert.Contains(t, resp.Invitation.Link, baseURL+"/reviews/")
	assert.Empty(t, resp.Warning)
	require.Len(t, env.Mail.Sent(), 1)
	assert.Contains(t, env.Mail.Sent()[0].Text, resp.Invitation.Link)

	var reloaded models.Hostel
	require.NoError(t, env.DB.First(&reloaded, "id = ?", hostel.ID).Error)
	assert.Zero(t, reloaded.AvailableSlots)

	t.Run("no slots left", func(t *testing.T) {
		rr := env.do(t, "POST", "/api/v1/admin/invitations", body, env.StaffToken)
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})

	t.Run("unknown hostel", func(t *testing.T) {
		bad := map[string]string{"hostel": "nowhere", "full_name": "A", "phone": "+254712345678"}
		rr := env.do(t, "POST", "/api/v1/admin/invitations", bad, env.StaffToken)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("missing hostel", func(t *testing.T) {
		rr := env.do(t, "POST", "/api/v1/admin/invitations", map[string]string{"full_name": "A"}, env.StaffToken)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestAdminHandler_CreateInvitation_MailFailure(t *testing.T) {
	env := setupEnv(t)
	env.Mail.Err = assert.AnError
	hostel := testutil.CreateTestHostel(t, env.DB)

	body := map[string]string{
		"hostel":    hostel.Slug,
		"full_name": "Akinyi O",
		"email":     "akinyi@example.com",
		"phone":     "+254712345678",
	}
	rr := env.do(t, "POST", "/api/v1/admin/invitations", body, env.StaffToken)
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp dto.InvitationResponse
	testutil.ParseJSONResponse(t, rr, &resp)
	assert.NotEmpty(t, resp.Warning)
	assert.NotEmpty(t, resp.Invitation.Link)
}

func TestAdminHandler_ListInvitations(t *testing.T) {
	env := setupEnv(t)
	a := testutil.CreateTestHostel(t, env.DB, testutil.WithName("Alpha"))
	b := testutil.CreateTestHostel(t, env.DB, testutil.WithName("Beta"))

	for _, slug := range []string{a.Slug, a.Slug, b.Slug} {
		rr := env.do(t, "POST", "/api/v1/admin/invitations",
			map[string]string{"hostel": slug, "full_name": "Guest", "phone": "+254712345678"}, env.StaffToken)
		require.Equal(t, http.StatusCreated, rr.Code)
	}

	rr := env.do(t, "GET", "/api/v1/admin/invitations", nil, env.StaffToken)
	require.Equal(t, http.StatusOK, rr.Code)
	var all dto.PaginatedResponse
	testutil.ParseJSONResponse(t, rr, &all)
	assert.EqualValues(t, 3, all.Total)

	rr = env.do(t, "GET", "/api/v1/admin/invitations?hostel="+b.Slug, nil, env.StaffToken)
	require.Equal(t, http.StatusOK, rr.Code)
	var filtered dto.PaginatedResponse
	testutil.ParseJSONResponse(t, rr, &filtered)
	assert.EqualValues(t, 1, filtered.Total)

	rr = env.do(t, "GET", "/api/v1/admin/invitations?hostel=missing", nil, env.StaffToken)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAdminHandler_Intake(t *testing.T) {
	env := setupEnv(t)
	hostel := testutil.CreateTestHostel(t, env.DB)

	rr := env.do(t, "POST", "/api/v1/contact", map[string]string{
		"first_name": "A", "last_name": "B", "email": "a@example.com",
		"subject": "other", "message": "Hello",
	}, "")
	require.Equal(t, http.StatusCreated, rr.Code)
	var contact models.ContactInquiry
	testutil.ParseJSONResponse(t, rr, &contact)

	rr = env.do(t, "POST", "/api/v1/hostels/"+hostel.Slug+"/inquiries", map[string]string{
		"full_name": "C D", "email": "c@example.com", "message": "Is water included?",
	}, "")
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = env.do(t, "POST", "/api/v1/property-listings", map[string]interface{}{
		"name": "E", "contact": "e@example.com", "role": "tenant",
	}, "")
	require.Equal(t, http.StatusCreated, rr.Code)
	var listing models.PropertyListing
	testutil.ParseJSONResponse(t, rr, &listing)

	t.Run("contacts", func(t *testing.T) {
		rr := env.do(t, "GET", "/api/v1/admin/inquiries/contact", nil, env.StaffToken)
		require.Equal(t, http.StatusOK, rr.Code)
		var page struct {
			Items []models.ContactInquiry `json:"items"`
			Total int64                   `json:"total"`
		}
		testutil.ParseJSONResponse(t, rr, &page)
		assert.EqualValues(t, 1, page.Total)

		rr = env.do(t, "DELETE", "/api/v1/admin/inquiries/contact/"+contact.ID.String(), nil, env.StaffToken)
		assert.Equal(t, http.StatusNoContent, rr.Code)
		rr = env.do(t, "DELETE", "/api/v1/admin/inquiries/contact/"+contact.ID.String(), nil, env.StaffToken)
		assert.Equal(t, http.StatusNotFound, rr.Code)
		rr = env.do(t, "DELETE", "/api/v1/admin/inquiries/contact/not-a-uuid", nil, env.StaffToken)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("hostel inquiries", func(t *testing.T) {
		rr := env.do(t, "GET", "/api/v1/admin/inquiries/hostel?hostel="+hostel.Slug, nil, env.StaffToken)
		require.Equal(t, http.StatusOK, rr.Code)
		var page struct {
			Items []models.HostelInquiry `json:"items"`
			Total int64                  `json:"total"`
		}
		testutil.ParseJSONResponse(t, rr, &page)
		require.Len(t, page.Items, 1)
		assert.Equal(t, hostel.ID, page.Items[0].HostelID)
	})

	t.Run("property listing reply", func(t *testing.T) {
		path := "/api/v1/admin/property-listings/" + listing.ID.String()

		rr := env.do(t, "PUT", path+"/reply", map[string]string{"reply": "  "}, env.StaffToken)
		assert.Equal(t, http.StatusBadRequest, rr.Code)

		rr = env.do(t, "PUT", path+"/reply", map[string]string{"reply": "We will call you"}, env.StaffToken)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		var replied models.PropertyListing
		testutil.ParseJSONResponse(t, rr, &replied)
		assert.Equal(t, "We will call you", replied.Reply)
		assert.NotNil(t, replied.RepliedAt)

		rr = env.do(t, "DELETE", path, nil, env.StaffToken)
		assert.Equal(t, http.StatusNoContent, rr.Code)
	})
}
