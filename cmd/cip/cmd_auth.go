package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in via the configured identity provider",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := cli.ctrl.SignIn(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Signed in as %s <%s>\n", result.Username, result.Email)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear local session state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cli.ctrl.Logout(cmd.Context()); err != nil {
			// Local state is already cleared; the backend call failing is
			// worth reporting but not worth a non-zero exit.
			fmt.Printf("Signed out locally (backend logout failed: %v)\n", err)
			return nil
		}
		fmt.Println("Signed out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := cli.queries.User(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("%s <%s>\n", user.Username, user.Email)
		return nil
	},
}
