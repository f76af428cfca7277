package intake

import (
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/hugh/hostel-hunter/internal/apperr"
	"github.com/hugh/hostel-hunter/internal/database/models"
	"github.com/hugh/hostel-hunter/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	s, db := testutil.SetupTestStore(t)
	return NewService(s, slog.New(slog.NewTextHandler(io.Discard, nil))), db
}

func validContact() ContactInput {
	return ContactInput{
		FirstName: "Jane",
		LastName:  "Wanjiru",
		Email:     " Jane@Example.com ",
		Subject:   "booking_inquiry",
		Message:   "Is there parking?",
	}
}

func TestSubmitContact(t *testing.T) {
	svc, _ := setup(t)
	ctx := testutil.TestContext(t)

	inq, err := svc.SubmitContact(ctx, validContact())
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", inq.Email)
	assert.Equal(t, models.SubjectBookingInquiry, inq.Subject)

	page, err := svc.ListContacts(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, DefaultPageSize, page.PageSize)
}

func TestSubmitContact_Validation(t *testing.T) {
	svc, _ := setup(t)
	ctx := testutil.TestContext(t)

	in := validContact()
	in.Email = "nope"
	in.Subject = "spam"
	in.Message = "   "

	_, err := svc.SubmitContact(ctx, in)
	require.ErrorIs(t, err, apperr.ErrValidation)
	e, _ := apperr.As(err)
	assert.Contains(t, e.Fields, "email")
	assert.Contains(t, e.Fields, "subject")
	assert.Contains(t, e.Fields, "message")
	assert.Equal(t, "email", e.Field)
}

func TestSubmitHostelInquiry(t *testing.T) {
	svc, db := setup(t)
	ctx := testutil.TestContext(t)
	hostel := testutil.CreateTestHostel(t, db)

	inq, err := svc.SubmitHostelInquiry(ctx, hostel.Slug, HostelInquiryInput{
		FullName: "Otieno",
		Email:    "otieno@example.com",
		Phone:    "0712 345 678",
		Message:  "Any rooms next month?",
	})
	require.NoError(t, err)
	assert.Equal(t, hostel.ID, inq.HostelID)
	assert.Equal(t, "0712345678", inq.Phone)

	page, err := svc.ListHostelInquiries(ctx, &hostel.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.NotNil(t, page.Items[0].Hostel)
	assert.Equal(t, hostel.Name, page.Items[0].Hostel.Name)

	_, err = svc.SubmitHostelInquiry(ctx, "no-such-hostel", HostelInquiryInput{
		FullName: "Otieno", Email: "otieno@example.com", Message: "Hello",
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.SubmitHostelInquiry(ctx, hostel.Slug, HostelInquiryInput{
		FullName: "Otieno", Email: "otieno@example.com", Phone: "12", Message: "Hello",
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestPropertyListing_SubmitReplyDelete(t *testing.T) {
	svc, db := setup(t)
	ctx := testutil.TestContext(t)
	user := testutil.CreateTestUser(t, db)

	anon, err := svc.SubmitPropertyListing(ctx, nil, PropertyListingInput{
		Name: "Room near Gate A", Contact: "0712345678", Role: "Landlord", Rent: 4000,
	})
	require.NoError(t, err)
	assert.Nil(t, anon.UserID)
	assert.Equal(t, models.RoleLandlord, anon.Role)

	owned, err := svc.SubmitPropertyListing(ctx, &user.ID, PropertyListingInput{
		Name: "Looking for a bedsitter", Contact: "me@example.com", Role: "tenant",
	})
	require.NoError(t, err)
	require.NotNil(t, owned.UserID)

	replied, err := svc.ReplyToPropertyListing(ctx, anon.ID, "  We have forwarded your listing. ")
	require.NoError(t, err)
	assert.Equal(t, "We have forwarded your listing.", replied.Reply)
	assert.NotNil(t, replied.RepliedAt)

	_, err = svc.ReplyToPropertyListing(ctx, anon.ID, " ")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.ReplyToPropertyListing(ctx, uuid.New(), "hello")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, svc.DeletePropertyListing(ctx, owned.ID))
	assert.ErrorIs(t, svc.DeletePropertyListing(ctx, owned.ID), apperr.ErrNotFound)

	page, err := svc.ListPropertyListings(ctx, 1, 500)
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, page.PageSize)
	assert.Equal(t, int64(1), page.Total)
}

func TestPropertyListing_Validation(t *testing.T) {
	svc, _ := setup(t)
	ctx := testutil.TestContext(t)

	_, err := svc.SubmitPropertyListing(ctx, nil, PropertyListingInput{Name: "X", Contact: "0712345678", Role: "agent"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.SubmitPropertyListing(ctx, nil, PropertyListingInput{Name: "X", Contact: "call me", Role: "tenant"})
	require.ErrorIs(t, err, apperr.ErrValidation)
	e, _ := apperr.As(err)
	assert.Equal(t, "contact", e.Field)

	_, err = svc.SubmitPropertyListing(ctx, nil, PropertyListingInput{Name: "X", Contact: "0712345678", Role: "tenant", Rent: -1})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestDeleteInquiries(t *testing.T) {
	svc, db := setup(t)
	ctx := testutil.TestContext(t)
	hostel := testutil.CreateTestHostel(t, db)

	c, err := svc.SubmitContact(ctx, validContact())
	require.NoError(t, err)
	h, err := svc.SubmitHostelInquiry(ctx, hostel.Slug, HostelInquiryInput{FullName: "A", Email: "a@example.com", Message: "Hi"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteContact(ctx, c.ID))
	require.NoError(t, svc.DeleteHostelInquiry(ctx, h.ID))
	assert.ErrorIs(t, svc.DeleteContact(ctx, c.ID), apperr.ErrNotFound)
}
