package handlers_test

import (
	"net/http"
	"testing"

	"github.com/hugh/hostel-hunter/internal/catalog"
	"github.com/hugh/hostel-hunter/internal/database/models"
	"github.com/hugh/hostel-hunter/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostelHandler_Search(t *testing.T) {
	env := setupEnv(t)

	testutil.CreateTestHostel(t, env.DB, testutil.WithName("Gate Single"), testutil.WithCategory(models.CategorySingle), testutil.WithPrice(4000))
	testutil.CreateTestHostel(t, env.DB, testutil.WithName("Hill Bedsitter"), testutil.WithCategory(models.CategoryBedsitter), testutil.WithPrice(7000), testutil.WithLocation("Hilltop"))
	testutil.CreateTestHostel(t, env.DB, testutil.WithName("Full House"), testutil.WithSlots(0))

	t.Run("all buckets", func(t *testing.T) {
		rr := env.do(t, "GET", "/api/v1/hostels", nil, "")
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var result catalog.SearchResult
		testutil.ParseJSONResponse(t, rr, &result)
		require.Len(t, result.Buckets, 3)

		recent := result.Bucket(catalog.BucketRecent)
		require.NotNil(t, recent)
		assert.EqualValues(t, 2, recent.Total, "hostels without slots are hidden")
		assert.EqualValues(t, 1, result.Bucket(catalog.BucketSingles).Total)
	})

	t.Run("filters", func(t *testing.T) {
		rr := env.do(t, "GET", "/api/v1/hostels?location=hill&min_price=5000", nil, "")
		require.Equal(t, http.StatusOK, rr.Code)

		var result catalog.SearchResult
		testutil.ParseJSONResponse(t, rr, &result)
		recent := result.Bucket(catalog.BucketRecent)
		require.Len(t, recent.Hostels, 1)
		assert.Equal(t, "Hill Bedsitter", recent.Hostels[0].Name)
	})

	t.Run("free text", func(t *testing.T) {
		rr := env.do(t, "GET", "/api/v1/hostels?q=gate", nil, "")
		require.Equal(t, http.StatusOK, rr.Code)

		var result catalog.SearchResult
		testutil.ParseJSONResponse(t, rr, &result)
		assert.Equal(t, "gate", result.Query)
		assert.EqualValues(t, 1, result.Bucket(catalog.BucketRecent).Total)
	})

	t.Run("paging", func(t *testing.T) {
		rr := env.do(t, "GET", "/api/v1/hostels?per_page=1&recent_page=2", nil, "")
		require.Equal(t, http.StatusOK, rr.Code)

		var result catalog.SearchResult
		testutil.ParseJSONResponse(t, rr, &result)
		recent := result.Bucket(catalog.BucketRecent)
		assert.Equal(t, 2, recent.Page)
		assert.Equal(t, 2, recent.TotalPages)
		assert.Len(t, recent.Hostels, 1)
	})

	tests := []struct {
		name  string
		query string
	}{
		{"bad price", "?min_price=cheap"},
		{"negative price", "?max_price=-1"},
		{"inverted range", "?min_price=9000&max_price=1000"},
		{"unknown category", "?category=castle"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, "GET", "/api/v1/hostels"+tt.query, nil, "")
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestHostelHandler_Get(t *testing.T) {
	env := setupEnv(t)
	hostel := testutil.CreateTestHostel(t, env.DB)
	testutil.CreateTestReview(t, env.DB, hostel.ID, 4)
	testutil.CreateTestReview(t, env.DB, hostel.ID, 5)

	rr := env.do(t, "GET", "/api/v1/hostels/"+hostel.Slug, nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var detail catalog.HostelDetail
	testutil.ParseJSONResponse(t, rr, &detail)
	assert.Equal(t, hostel.Slug, detail.Slug)
	assert.InDelta(t, 4.5, detail.AverageRating, 0.001)
	assert.Len(t, detail.Reviews, 2)

	rr = env.do(t, "GET", "/api/v1/hostels/no-such-hostel", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHostelHandler_Compare(t *testing.T) {
	env := setupEnv(t)
	cheap := testutil.CreateTestHostel(t, env.DB, testutil.WithName("Cheap"), testutil.WithPrice(3000))
	dear := testutil.CreateTestHostel(t, env.DB, testutil.WithName("Dear"), testutil.WithPrice(9000))

	rr := env.do(t, "GET", "/api/v1/hostels/compare?a="+cheap.Slug+"&b="+dear.Slug, nil, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var cmp catalog.Comparison
	testutil.ParseJSONResponse(t, rr, &cmp)
	assert.Equal(t, catalog.First, cmp.Price)
	assert.Contains(t, cmp.Recommendation, "Cheap")

	rr = env.do(t, "GET", "/api/v1/hostels/compare?a="+cheap.Slug+"&b="+cheap.Slug, nil, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, "GET", "/api/v1/hostels/compare?a="+cheap.Slug+"&b=missing", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHostelHandler_Inquire(t *testing.T) {
	env := setupEnv(t)
	hostel := testutil.CreateTestHostel(t, env.DB)

	body := map[string]string{
		"full_name": "Achieng Otieno",
		"email":     "achieng@example.com",
		"phone":     "+254712345678",
		"message":   "Is there parking?",
	}
	rr := env.do(t, "POST", "/api/v1/hostels/"+hostel.Slug+"/inquiries", body, "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var count int64
	env.DB.Model(&models.HostelInquiry{}).Where("hostel_id = ?", hostel.ID).Count(&count)
	assert.EqualValues(t, 1, count)

	rr = env.do(t, "POST", "/api/v1/hostels/missing/inquiries", body, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	body["email"] = "not-an-email"
	rr = env.do(t, "POST", "/api/v1/hostels/"+hostel.Slug+"/inquiries", body, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
