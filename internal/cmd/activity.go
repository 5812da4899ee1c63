package cmd

import (
	"github.com/chronically/chronically/pkg/service"
	"github.com/spf13/cobra"
)

var (
	repostsPage  int
	repostsLimit int
)

// contentPair builds "<verb> article <id>" and "<verb> tweet <link>".
func contentPair(use, short string, onArticle func(int64) error, onTweet func(string) error) *cobra.Command {
	parent := &cobra.Command{Use: use, Short: short}
	parent.AddCommand(&cobra.Command{
		Use:   "article <id>",
		Short: short + " (article)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := service.ParseArticleID(args[0])
			if err != nil {
				return err
			}
			return onArticle(id)
		},
	}, &cobra.Command{
		Use:   "tweet <link>",
		Short: short + " (tweet)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return onTweet(args[0])
		},
	})
	return parent
}

var savedCmd = &cobra.Command{
	Use:   "saved",
	Short: "List your saved articles and tweets",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewActivityService().Saved()
	},
}

var sharedCmd = &cobra.Command{
	Use:   "shared",
	Short: "List shares by you and the people you follow",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewActivityService().Shared()
	},
}

var repostsCmd = &cobra.Command{
	Use:   "reposts",
	Short: "Page through what the people you follow reposted",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewActivityService().Reposts(repostsPage, repostsLimit)
	},
}

func init() {
	svc := service.NewActivityService()
	shareCmd := contentPair("share", "Share with your followers", svc.ShareArticle, svc.ShareTweet)
	saveCmd := contentPair("save", "Save for later", svc.SaveArticle, svc.SaveTweet)
	unsaveCmd := contentPair("unsave", "Remove from saved", svc.UnsaveArticle, svc.UnsaveTweet)

	repostsCmd.Flags().IntVar(&repostsPage, "page", 1, "Page number")
	repostsCmd.Flags().IntVar(&repostsLimit, "limit", 10, "Reposts per page (max 50)")

	rootCmd.AddCommand(shareCmd, saveCmd, unsaveCmd, savedCmd, sharedCmd, repostsCmd)
}
