package cmd

import (
	"github.com/chronically/chronically/pkg/service"
	"github.com/spf13/cobra"
)

var (
	commentText   string
	commentParent int64
)

var commentCmd = &cobra.Command{
	Use:   "comment",
	Short: "Comment on an article or tweet",
}

var commentArticleCmd = &cobra.Command{
	Use:   "article <id>",
	Short: "Comment on an article",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := service.ParseArticleID(args[0])
		if err != nil {
			return err
		}
		return service.NewCommentService().CommentArticle(id, commentText, commentParent)
	},
}

var commentTweetCmd = &cobra.Command{
	Use:   "tweet <link>",
	Short: "Comment on a tweet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewCommentService().CommentTweet(args[0], commentText, commentParent)
	},
}

var commentsCmd = &cobra.Command{
	Use:   "comments",
	Short: "Read the comments on an article or tweet",
}

var commentsArticleCmd = &cobra.Command{
	Use:   "article <id>",
	Short: "Read an article's comments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := service.ParseArticleID(args[0])
		if err != nil {
			return err
		}
		return service.NewCommentService().ArticleComments(id)
	},
}

var commentsTweetCmd = &cobra.Command{
	Use:   "tweet <link>",
	Short: "Read a tweet's comments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewCommentService().TweetComments(args[0])
	},
}

func init() {
	for _, c := range []*cobra.Command{commentArticleCmd, commentTweetCmd} {
		c.Flags().StringVarP(&commentText, "message", "m", "", "Comment text (prompted when empty)")
		c.Flags().Int64Var(&commentParent, "reply-to", 0, "Comment id to reply to")
	}
	commentCmd.AddCommand(commentArticleCmd, commentTweetCmd)
	commentsCmd.AddCommand(commentsArticleCmd, commentsTweetCmd)
	rootCmd.AddCommand(commentCmd, commentsCmd)
}
