package main

import (
	"fmt"

	"github.com/hugh/hostel-hunter/internal/catalog"
	"github.com/hugh/hostel-hunter/internal/tokens"
	"github.com/spf13/cobra"
)

var (
	// Invite flags
	inviteHostel string
	inviteName   string
	inviteEmail  string
	invitePhone  string
)

var inviteCmd = &cobra.Command{
	Use:   "invite",
	Short: "Manage review invitations",
}

var inviteCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Issue a review invitation for a hostel",
	Long: `Issue a single-use review link. One available slot is taken from the
hostel. When an email is given the link is mailed; it is always printed.

Examples:
  hostelctl invite create --hostel sunrise-court-main-gate --name "Jane" --phone +254712345678
  hostelctl invite create --hostel sunrise-court-main-gate --name "Jane" --phone 0712345678 --email jane@example.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		hostel, err := catalog.NewService(app.store, app.log).GetBySlug(ctx, inviteHostel)
		if err != nil {
			return err
		}

		invitations := tokens.NewInvitations(app.store, mailer(), app.cfg.Server.BaseURL, app.log)
		result, err := invitations.Create(ctx, tokens.CreateInvitationInput{
			HostelID: hostel.ID,
			FullName: inviteName,
			Email:    inviteEmail,
			Phone:    invitePhone,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Invitation for %s\n  link: %s\n", hostel.Name, result.Invitation.Link)
		if result.Warning != "" {
			fmt.Fprintf(out, "  warning: %s\n", result.Warning)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inviteCmd)
	inviteCmd.AddCommand(inviteCreateCmd)

	inviteCreateCmd.Flags().StringVar(&inviteHostel, "hostel", "", "Hostel slug (required)")
	inviteCreateCmd.Flags().StringVar(&inviteName, "name", "", "Guest's full name (required)")
	inviteCreateCmd.Flags().StringVar(&inviteEmail, "email", "", "Guest's email; the link is mailed when set")
	inviteCreateCmd.Flags().StringVar(&invitePhone, "phone", "", "Guest's phone number (required)")
	_ = inviteCreateCmd.MarkFlagRequired("hostel")
	_ = inviteCreateCmd.MarkFlagRequired("name")
	_ = inviteCreateCmd.MarkFlagRequired("phone")
}
