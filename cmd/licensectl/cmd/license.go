package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

// licenseView mirrors the server's license payload.
type licenseView struct {
	LicenseID    string    `json:"license_id"`
	Holder       string    `json:"holder"`
	Tier         string    `json:"tier"`
	IssuedAt     time.Time `json:"issued_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	ProjectLimit int       `json:"project_limit"`
	Features     []string  `json:"features"`
	Token        string    `json:"token,omitempty"`
	Revoked      bool      `json:"revoked"`
	RevokedAt    time.Time `json:"revoked_at"`
	Expired      bool      `json:"expired"`
}

var (
	issueHolder   string
	issueTier     string
	issueDuration int
)

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a license for a holder",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := requireToken(); err != nil {
			return err
		}

		body := map[string]any{
			"holder":        issueHolder,
			"tier":          issueTier,
			"duration_days": issueDuration,
		}
		var lic licenseView
		if err := mustClient().post(cmd.Context(), "/api/v1/admin/licenses", body, &lic); err != nil {
			return err
		}

		if flagJSON {
			return printJSON(lic)
		}

		fmt.Printf("License issued\n")
		fmt.Printf("  ID:      %s\n", lic.LicenseID)
		fmt.Printf("  Holder:  %s\n", lic.Holder)
		fmt.Printf("  Tier:    %s\n", lic.Tier)
		fmt.Printf("  Expires: %s\n", lic.ExpiresAt.Format(time.RFC3339))
		fmt.Printf("\nToken:\n%s\n", lic.Token)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all licenses, most recent first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := requireToken(); err != nil {
			return err
		}

		var resp struct {
			Licenses []licenseView `json:"licenses"`
			Total    int           `json:"total"`
		}
		if err := mustClient().get(cmd.Context(), "/api/v1/admin/licenses", &resp); err != nil {
			return err
		}

		if flagJSON {
			return printJSON(resp)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tHOLDER\tTIER\tEXPIRES\tSTATE")
		for _, lic := range resp.Licenses {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				lic.LicenseID, lic.Holder, lic.Tier,
				lic.ExpiresAt.Format("2006-01-02"), licenseState(lic))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("\nTotal: %d\n", resp.Total)
		return nil
	},
}

func licenseState(lic licenseView) string {
	switch {
	case lic.Revoked:
		return "revoked"
	case lic.Expired:
		return "expired"
	default:
		return "active"
	}
}

var revokeCmd = &cobra.Command{
	Use:   "revoke <license-id>",
	Short: "Revoke a license",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireToken(); err != nil {
			return err
		}
		path := fmt.Sprintf("/api/v1/admin/licenses/%s/revoke", args[0])
		if err := mustClient().post(cmd.Context(), path, nil, nil); err != nil {
			return err
		}
		fmt.Printf("License %s revoked\n", args[0])
		return nil
	},
}

var extendDays int

var extendCmd = &cobra.Command{
	Use:   "extend <license-id>",
	Short: "Extend a license and print the re-signed token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireToken(); err != nil {
			return err
		}

		path := fmt.Sprintf("/api/v1/admin/licenses/%s/extend", args[0])
		var lic licenseView
		if err := mustClient().post(cmd.Context(), path, map[string]int{"days": extendDays}, &lic); err != nil {
			return err
		}

		if flagJSON {
			return printJSON(lic)
		}

		fmt.Printf("License %s extended to %s\n", lic.LicenseID, lic.ExpiresAt.Format(time.RFC3339))
		fmt.Printf("\nToken:\n%s\n", lic.Token)
		return nil
	},
}

func init() {
	issueCmd.Flags().StringVar(&issueHolder, "holder", "", "License holder identity")
	issueCmd.Flags().StringVar(&issueTier, "tier", "", "Plan tier (trial, basic, professional, enterprise)")
	issueCmd.Flags().IntVar(&issueDuration, "duration-days", 0, "Validity in days (0 uses the plan default)")
	_ = issueCmd.MarkFlagRequired("holder")
	_ = issueCmd.MarkFlagRequired("tier")

	extendCmd.Flags().IntVar(&extendDays, "days", 0, "Days to add to the expiry")
	_ = extendCmd.MarkFlagRequired("days")
}
