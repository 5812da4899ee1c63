package cmd

import (
	"github.com/chronically/chronically/pkg/service"
	"github.com/spf13/cobra"
)

var loginOpts service.LoginOptions

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store an app token",
	Long: `Verify an app token with the server and store it in
~/.config/chronically/cli/credentials.json.

Pass --token, or --username with --auth-token to exchange an Auth0
subject for a token. With neither, the token is prompted for.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewAuthService().Login(loginOpts)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored token",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewAuthService().Logout()
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the account the stored token belongs to",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewAuthService().WhoAmI()
	},
}

var regionCmd = &cobra.Command{
	Use:   "region [name]",
	Short: "Show or set your region",
	Long: `Show your region, or set it to name. Tweets from your region rank
higher in 'chronically feed --mode foryou'.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewAuthService().Region(optionalArg(args))
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginOpts.Token, "token", "", "App token to store")
	loginCmd.Flags().StringVar(&loginOpts.Username, "username", "", "Username to log in as")
	loginCmd.Flags().StringVar(&loginOpts.Subject, "auth-token", "", "Auth0 subject of the account")
	loginCmd.MarkFlagsRequiredTogether("username", "auth-token")

	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, regionCmd)
}
