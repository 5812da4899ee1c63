package cmd

import (
	"strings"

	"github.com/chronically/chronically/pkg/service"
	"github.com/spf13/cobra"
)

var (
	contentCategory string
	trendingRegion  string
)

var articlesCmd = &cobra.Command{
	Use:   "articles [id]",
	Short: "List articles, or show one by id",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := service.NewContentService()
		if len(args) == 1 {
			id, err := service.ParseArticleID(args[0])
			if err != nil {
				return err
			}
			return svc.ShowArticle(id)
		}
		return svc.ListArticles(cmd.Context(), contentCategory)
	},
}

var tweetsCmd = &cobra.Command{
	Use:   "tweets [link]",
	Short: "List tweets, or show one by link",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := service.NewContentService()
		if len(args) == 1 {
			return svc.ShowTweet(args[0])
		}
		return svc.ListTweets(cmd.Context(), contentCategory)
	},
}

var trendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "Show the most favorited tweets of the latest days",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewContentService().Trending(trendingRegion)
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search articles and tweets",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewContentService().Search(strings.Join(args, " "))
	},
}

var relatedCmd = &cobra.Command{
	Use:   "related <article-id>",
	Short: "Show other coverage of the same story",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := service.ParseArticleID(args[0])
		if err != nil {
			return err
		}
		return service.NewContentService().Related(id)
	},
}

var explainCmd = &cobra.Command{
	Use:   "explain <tweet-link|article-id>",
	Short: "Explain the context of a tweet or an article",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewContentService().Explain(args[0])
	},
}

func init() {
	for _, c := range []*cobra.Command{articlesCmd, tweetsCmd} {
		c.Flags().StringVarP(&contentCategory, "category", "c", "", "Only this category")
	}
	trendingCmd.Flags().StringVarP(&trendingRegion, "region", "r", "", "Only tweets from this region")
	rootCmd.AddCommand(articlesCmd, tweetsCmd, trendingCmd, searchCmd, relatedCmd, explainCmd)
}
