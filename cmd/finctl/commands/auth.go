package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/fincache/model"
)

func (c *CLI) newLoginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cl, err := c.clientFor(cmd.Context())
			if err != nil {
				return err
			}
			u, err := cl.Login(cmd.Context(), model.Credentials{Email: email, Password: password})
			if err != nil {
				return err
			}
			name := u.FullName
			if name == "" {
				name = u.Email
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (c *CLI) newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cl, err := c.clientFor(cmd.Context())
			if err != nil {
				return err
			}
			if err := cl.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func (c *CLI) newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cl, err := c.clientFor(cmd.Context())
			if err != nil {
				return err
			}
			u, err := cl.Profile(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n", u.FullName, u.Email)
			return nil
		},
	}
}
