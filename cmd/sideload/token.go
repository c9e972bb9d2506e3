package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/thatcatcamp/sideload/internal/auth"
	"github.com/thatcatcamp/sideload/internal/db"
	"github.com/thatcatcamp/sideload/internal/users"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage API bearer tokens",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue <email>",
	Short: "Issue a bearer token for a user",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := initSystemDB(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if auth.UsingPlaceholderSecret() {
			fmt.Fprintln(os.Stderr, "Warning: auth.jwt_secret is not set; run 'sideload token secret' and store the result")
		}

		user, err := users.GetUserByEmail(db.GetDB(), args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		ttl, _ := cmd.Flags().GetDuration("ttl")
		token, err := auth.GenerateToken(user, ttl)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating token: %v\n", err)
			os.Exit(1)
		}

		fmt.Println(token)
	},
}

var tokenSecretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Generate a random signing secret",
	Run: func(cmd *cobra.Command, args []string) {
		secret, err := auth.GenerateSecret()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(secret)
	},
}

func init() {
	tokenIssueCmd.Flags().Duration("ttl", 0, "token lifetime (default auth.jwt_expiry_hours)")

	tokenCmd.AddCommand(tokenIssueCmd)
	tokenCmd.AddCommand(tokenSecretCmd)
	rootCmd.AddCommand(tokenCmd)
}
