// Package cmd implements the licensectl subcommands.
package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	version string

	// Global flags
	flagAPIURL string
	flagToken  string
	flagJSON   bool
)

var rootCmd = &cobra.Command{
	Use:   "licensectl",
	Short: "TestMate Studio licensing administration CLI",
	Long: `licensectl manages licenses against a running licensing server.

It can issue, list, revoke, and extend licenses, verify tokens, and show
usage statistics. Authenticate with "licensectl login" or pass a session
token via --token / LICENSECTL_TOKEN.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the CLI version from build flags.
func SetVersion(v string) {
	version = v
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "API URL (env: LICENSECTL_API_URL)")
	rootCmd.PersistentFlags().StringVar(&flagToken, "token", "", "Admin session token (env: LICENSECTL_TOKEN)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output raw JSON")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(issueCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(revokeCmd)
	rootCmd.AddCommand(extendCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(pricingCmd)
}

func initConfig() {
	if flagAPIURL == "" {
		flagAPIURL = os.Getenv("LICENSECTL_API_URL")
	}
	if flagAPIURL == "" {
		flagAPIURL = "http://localhost:8080"
	}
	if flagToken == "" {
		flagToken = os.Getenv("LICENSECTL_TOKEN")
	}
}

func mustClient() *Client {
	return NewClient(flagAPIURL, flagToken)
}

func requireToken() error {
	if flagToken == "" {
		return fmt.Errorf("admin session token required: run 'licensectl login' or set LICENSECTL_TOKEN")
	}
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show CLI version",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("licensectl version %s\n", version)
		fmt.Printf("  Go:      %s\n", runtime.Version())
		fmt.Printf("  OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}
