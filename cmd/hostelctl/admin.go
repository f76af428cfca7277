package main

import (
	"fmt"

	"github.com/hugh/hostel-hunter/internal/accounts"
	"github.com/spf13/cobra"
)

var (
	// Admin flags
	adminEmail     string
	adminPassword  string
	adminFirstName string
	adminLastName  string
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage staff accounts",
}

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a staff account",
	Long: `Create a password account and grant it access to the staff API.

Examples:
  hostelctl admin create --email ops@example.com --password 'S3cretpass'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := accounts.NewService(app.store, app.log)
		user, err := svc.SignUp(cmd.Context(), accounts.SignUpInput{
			Email:           adminEmail,
			Password:        adminPassword,
			PasswordConfirm: adminPassword,
			FirstName:       adminFirstName,
			LastName:        adminLastName,
		})
		if err != nil {
			return fmt.Errorf("creating account: %w", err)
		}
		if err := svc.SetStaff(cmd.Context(), user.ID, true); err != nil {
			return fmt.Errorf("granting staff access: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Staff account created\n  username: %s\n  email:    %s\n", user.Username, user.Email)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminCreateCmd)

	adminCreateCmd.Flags().StringVar(&adminEmail, "email", "", "Login email (required)")
	adminCreateCmd.Flags().StringVar(&adminPassword, "password", "", "Initial password (required)")
	adminCreateCmd.Flags().StringVar(&adminFirstName, "first-name", "Site", "First name")
	adminCreateCmd.Flags().StringVar(&adminLastName, "last-name", "Admin", "Last name")
	_ = adminCreateCmd.MarkFlagRequired("email")
	_ = adminCreateCmd.MarkFlagRequired("password")
}
