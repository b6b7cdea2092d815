package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show license totals",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := requireToken(); err != nil {
			return err
		}

		var resp struct {
			TotalLicenses   int            `json:"total_licenses"`
			ActiveLicenses  int            `json:"active_licenses"`
			ExpiredLicenses int            `json:"expired_licenses"`
			RevokedLicenses int            `json:"revoked_licenses"`
			TrialsConsumed  int            `json:"trials_consumed"`
			ByTier          map[string]int `json:"by_tier"`
		}
		if err := mustClient().get(cmd.Context(), "/api/v1/admin/statistics", &resp); err != nil {
			return err
		}

		if flagJSON {
			return printJSON(resp)
		}

		fmt.Printf("Licenses: %d total, %d active, %d expired, %d revoked\n",
			resp.TotalLicenses, resp.ActiveLicenses, resp.ExpiredLicenses, resp.RevokedLicenses)
		fmt.Printf("Trials consumed: %d\n", resp.TrialsConsumed)
		if len(resp.ByTier) > 0 {
			fmt.Println("By tier:")
			for tier, n := range resp.ByTier {
				fmt.Printf("  %-14s %d\n", tier, n)
			}
		}
		return nil
	},
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List holders with their latest license and usage",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := requireToken(); err != nil {
			return err
		}

		var resp struct {
			Users []struct {
				Holder    string    `json:"holder"`
				LicenseID string    `json:"license_id"`
				Tier      string    `json:"tier"`
				ExpiresAt time.Time `json:"expires_at"`
				Expired   bool      `json:"expired"`
				Revoked   bool      `json:"revoked"`
				Usage     []struct {
					Metric string `json:"metric"`
					Count  int    `json:"count"`
					Limit  int    `json:"limit"`
				} `json:"usage"`
			} `json:"users"`
			Total int `json:"total"`
		}
		if err := mustClient().get(cmd.Context(), "/api/v1/admin/users", &resp); err != nil {
			return err
		}

		if flagJSON {
			return printJSON(resp)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "HOLDER\tTIER\tEXPIRES\tSTATE\tUSAGE")
		for _, u := range resp.Users {
			state := "active"
			if u.Revoked {
				state = "revoked"
			} else if u.Expired {
				state = "expired"
			}
			usage := ""
			for i, c := range u.Usage {
				if i > 0 {
					usage += " "
				}
				if c.Limit < 0 {
					usage += fmt.Sprintf("%s=%d", c.Metric, c.Count)
				} else {
					usage += fmt.Sprintf("%s=%d/%d", c.Metric, c.Count, c.Limit)
				}
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				u.Holder, u.Tier, u.ExpiresAt.Format("2006-01-02"), state, usage)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("\nTotal: %d\n", resp.Total)
		return nil
	},
}

var pricingCmd = &cobra.Command{
	Use:   "pricing",
	Short: "Show the plan catalog",
	RunE: func(cmd *cobra.Command, _ []string) error {
		var resp struct {
			Plans []struct {
				Tier         string   `json:"tier"`
				Name         string   `json:"name"`
				PriceUSD     int      `json:"price_usd"`
				ProjectLimit int      `json:"project_limit"`
				DurationDays int      `json:"duration_days"`
				Features     []string `json:"features"`
			} `json:"plans"`
		}
		if err := mustClient().get(cmd.Context(), "/api/v1/license/pricing", &resp); err != nil {
			return err
		}

		if flagJSON {
			return printJSON(resp)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TIER\tNAME\tPRICE\tPROJECTS\tDURATION\tFEATURES")
		for _, p := range resp.Plans {
			projects := fmt.Sprintf("%d", p.ProjectLimit)
			if p.ProjectLimit < 0 {
				projects = "unlimited"
			}
			fmt.Fprintf(w, "%s\t%s\t$%d/mo\t%s\t%dd\t%d\n",
				p.Tier, p.Name, p.PriceUSD, projects, p.DurationDays, len(p.Features))
		}
		return w.Flush()
	},
}
