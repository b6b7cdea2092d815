package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <token>",
	Short: "Verify a license token against the server",
	Long: `Verify checks a token's signature, expiry, and revocation state.
No admin session is required.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var lic licenseView
		body := map[string]string{"token": args[0]}
		if err := mustClient().post(cmd.Context(), "/api/v1/license/verify", body, &lic); err != nil {
			return err
		}

		if flagJSON {
			return printJSON(lic)
		}

		fmt.Printf("Token valid\n")
		fmt.Printf("  License:  %s\n", lic.LicenseID)
		fmt.Printf("  Holder:   %s\n", lic.Holder)
		fmt.Printf("  Tier:     %s\n", lic.Tier)
		fmt.Printf("  Expires:  %s\n", lic.ExpiresAt.Format(time.RFC3339))
		fmt.Printf("  Features: %s\n", strings.Join(lic.Features, ", "))
		return nil
	},
}
