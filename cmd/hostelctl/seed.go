package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hugh/hostel-hunter/internal/apperr"
	"github.com/hugh/hostel-hunter/internal/catalog"
	"github.com/hugh/hostel-hunter/internal/database/models"
	"github.com/spf13/cobra"
)

var sampleHostels = []catalog.HostelInput{
	{
		Name:           "Sunrise Court",
		Description:    "Self-contained singles with a shared study room.",
		Address:        "12 Gate Road",
		Location:       "Main Gate",
		Category:       models.CategorySingle,
		Price:          4500,
		BillingCycle:   models.BillingMonthly,
		AvailableSlots: 6,
		Phone:          "+254712000001",
		Amenities:      []string{"wifi", "water", "security"},
	},
	{
		Name:           "Hilltop Bedsitters",
		Description:    "Quiet bedsitters ten minutes from the lecture halls.",
		Address:        "4 Ridge Lane",
		Location:       "Hilltop",
		Category:       models.CategoryBedsitter,
		Price:          7000,
		BillingCycle:   models.BillingMonthly,
		AvailableSlots: 3,
		Phone:          "+254712000002",
		Amenities:      []string{"wifi", "parking"},
	},
	{
		Name:           "Riverside Apartments",
		Description:    "One bedroom units with a kitchen, billed per semester.",
		Address:        "88 River Walk",
		Location:       "Riverside",
		Category:       models.CategoryOneBedroom,
		Price:          36000,
		BillingCycle:   models.BillingSemester,
		AvailableSlots: 2,
		Phone:          "+254712000003",
		Amenities:      []string{"water", "security", "laundry"},
	},
	{
		Name:           "Campus View",
		Description:    "Two bedroom flats for sharing.",
		Address:        "2 Library Street",
		Location:       "Main Gate",
		Category:       models.CategoryTwoBedroom,
		Price:          12000,
		BillingCycle:   models.BillingMonthly,
		AvailableSlots: 0,
		Phone:          "+254712000004",
		Amenities:      []string{"wifi", "water", "parking", "security"},
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load sample hostels",
	Long: `Create a handful of sample listings for development. Listings whose
slug already exists are left alone, so the command can be re-run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := catalog.NewService(app.store, app.log)
		created, err := seedCatalog(cmd.Context(), svc, sampleHostels, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d hostel(s) created.\n", created)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func seedCatalog(ctx context.Context, svc *catalog.Service, hostels []catalog.HostelInput, out io.Writer) (int, error) {
	created := 0
	for _, in := range hostels {
		slug := catalog.Slugify(in.Name, in.Location)
		_, err := svc.GetBySlug(ctx, slug)
		if err == nil {
			fmt.Fprintf(out, "  skip   %s\n", slug)
			continue
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return created, err
		}

		hostel, err := svc.CreateHostel(ctx, in)
		if err != nil {
			return created, fmt.Errorf("creating %s: %w", in.Name, err)
		}
		fmt.Fprintf(out, "  create %s\n", hostel.Slug)
		created++
	}
	return created, nil
}
