package cmd

import (
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginUsername string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate and print an admin session token",
	Long: `Login exchanges admin credentials for a session token.

The password is read from the LICENSECTL_PASSWORD environment variable
or prompted for interactively. Export the printed token as
LICENSECTL_TOKEN for subsequent commands.`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Admin username")
	_ = loginCmd.MarkFlagRequired("username")
}

func runLogin(cmd *cobra.Command, _ []string) error {
	pass := os.Getenv("LICENSECTL_PASSWORD")
	if pass == "" {
		fmt.Fprint(os.Stderr, "Password: ")
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		pass = strings.TrimSpace(string(raw))
	}
	if pass == "" {
		return fmt.Errorf("password required")
	}

	var resp struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	body := map[string]string{"username": loginUsername, "password": pass}
	if err := mustClient().post(cmd.Context(), "/api/v1/admin/login", body, &resp); err != nil {
		return err
	}

	if flagJSON {
		return printJSON(resp)
	}

	fmt.Printf("Session token (expires %s):\n", resp.ExpiresAt.Format(time.RFC3339))
	fmt.Println(resp.Token)
	fmt.Fprintf(os.Stderr, "\nexport LICENSECTL_TOKEN=%s\n", resp.Token)
	return nil
}
