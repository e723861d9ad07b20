package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dakgu/siack"
	"github.com/dakgu/siack/config"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Work with bearer tokens",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a bearer token signed with the configured secret",
	Long: `Issue a bearer token without a password login. The subject is not
checked against the users table.

Examples:
  siack token issue --subject alice
  siack token issue --subject ops --authority ROLE_USER --authority ROLE_ADMIN`,
	Args: cobra.NoArgs,
	RunE: runTokenIssue,
}

var (
	tokenSubject     string
	tokenAuthorities []string
)

func init() {
	tokenIssueCmd.Flags().StringVar(&tokenSubject, "subject", "", "token subject (username)")
	tokenIssueCmd.Flags().StringArrayVar(&tokenAuthorities, "authority", []string{siack.DefaultAuthority}, "granted authority (repeatable)")
	_ = tokenIssueCmd.MarkFlagRequired("subject")

	tokenCmd.AddCommand(tokenIssueCmd)
	rootCmd.AddCommand(tokenCmd)
}

func runTokenIssue(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	tokens, err := newTokens(cfg)
	if err != nil {
		return fmt.Errorf("token authenticator: %w", err)
	}

	token, err := tokens.Issue(tokenSubject, tokenAuthorities)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
