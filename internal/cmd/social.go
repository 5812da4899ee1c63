package cmd

import (
	"github.com/chronically/chronically/pkg/service"
	"github.com/spf13/cobra"
)

var followCmd = &cobra.Command{
	Use:   "follow <username>",
	Short: "Follow a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewSocialService().Follow(args[0])
	},
}

var unfollowCmd = &cobra.Command{
	Use:   "unfollow <username>",
	Short: "Stop following a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewSocialService().Unfollow(args[0])
	},
}

var followingCmd = &cobra.Command{
	Use:   "following [username]",
	Short: "List who you, or another user, follow",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewSocialService().Following(optionalArg(args))
	},
}

var followersCmd = &cobra.Command{
	Use:   "followers [username]",
	Short: "List who follows you, or another user",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewSocialService().Followers(optionalArg(args))
	},
}

var requestsCmd = &cobra.Command{
	Use:   "requests",
	Short: "Friend requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewSocialService().PendingRequests()
	},
}

var requestsSendCmd = &cobra.Command{
	Use:   "send <username>",
	Short: "Ask a user to be friends",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewSocialService().SendRequest(args[0])
	},
}

var requestsAcceptCmd = &cobra.Command{
	Use:   "accept <username>",
	Short: "Accept a friend request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewSocialService().AcceptRequest(args[0])
	},
}

var requestsRejectCmd = &cobra.Command{
	Use:   "reject <username>",
	Short: "Decline a friend request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewSocialService().RejectRequest(args[0])
	},
}

var usersCmd = &cobra.Command{
	Use:   "users <query>",
	Short: "Find users by name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewSocialService().SearchUsers(args[0])
	},
}

func optionalArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func init() {
	requestsCmd.AddCommand(requestsSendCmd, requestsAcceptCmd, requestsRejectCmd)
	rootCmd.AddCommand(followCmd, unfollowCmd, followingCmd, followersCmd, requestsCmd, usersCmd)
}
