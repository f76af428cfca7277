package main

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"github.com/hugh/hostel-hunter/internal/catalog"
	"github.com/hugh/hostel-hunter/internal/database/models"
	"github.com/hugh/hostel-hunter/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedCatalog_Idempotent(t *testing.T) {
	s, db := testutil.SetupTestStore(t)
	svc := catalog.NewService(s, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := testutil.TestContext(t)

	var out bytes.Buffer
	created, err := seedCatalog(ctx, svc, sampleHostels, &out)
	require.NoError(t, err)
	assert.Equal(t, len(sampleHostels), created)
	assert.Contains(t, out.String(), "create sunrise-court-main-gate")

	out.Reset()
	created, err = seedCatalog(ctx, svc, sampleHostels, &out)
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.Contains(t, out.String(), "skip   sunrise-court-main-gate")

	var count int64
	db.Model(&models.Hostel{}).Count(&count)
	assert.EqualValues(t, len(sampleHostels), count)
}

func TestSampleHostels_Valid(t *testing.T) {
	for _, h := range sampleHostels {
		assert.True(t, h.Category.Valid(), h.Name)
		assert.True(t, h.BillingCycle.Valid(), h.Name)
	}
}
