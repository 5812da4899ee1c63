package cmd

import (
	"fmt"

	"github.com/chronically/chronically/pkg/api"
	"github.com/chronically/chronically/pkg/service"
	"github.com/spf13/cobra"
)

var (
	feedMode       string
	feedCategory   string
	feedFromServer bool
	feedRatio      float64
	feedPage       int
	feedLimit      int
	feedType       string
	feedRegion     string
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Show your mixed feed of tweets and articles",
	Long: `Show tweets and articles mixed by time, newest first.

--mode picks the feed:
  mynews         tweets and articles in a fixed ratio (default). Both lists
                 are fetched at the same time and mixed here with
                 feed.tweet_ratio from the config. With --server the server
                 picks the category from your preferences and mixes it.
  foryou         tweets ranked for you by follows, preferences, your recent
                 interactions, popularity and your region. Needs a login.
  chronological  tweets, Bluesky posts and articles newest first, filtered
                 by --category, --region and --type.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := service.NewFeedService()
		switch feedMode {
		case service.ModeMyNews:
			ratio := -1.0
			if cmd.Flags().Changed("ratio") {
				ratio = feedRatio
			}
			return svc.View(cmd.Context(), feedCategory, feedFromServer, ratio)
		case service.ModeForYou:
			return svc.ForYou(feedPage, feedLimit)
		case service.ModeChronological:
			q := api.ChronologicalQuery{Region: feedRegion, ItemType: feedType, Page: feedPage, Limit: feedLimit}
			if feedCategory != "" {
				q.Categories = []string{feedCategory}
			}
			return svc.Chronological(q)
		}
		return fmt.Errorf("unknown feed mode %q (want mynews, foryou or chronological)", feedMode)
	},
}

func init() {
	feedCmd.Flags().StringVarP(&feedMode, "mode", "m", service.ModeMyNews, "Feed to show: mynews, foryou or chronological")
	feedCmd.Flags().StringVarP(&feedCategory, "category", "c", "", "Category to show (default: all)")
	feedCmd.Flags().BoolVar(&feedFromServer, "server", false, "Let the server compose the feed (mynews)")
	feedCmd.Flags().Float64Var(&feedRatio, "ratio", 0.7, "Share of tweets in the feed, 0 to 1 (mynews)")
	feedCmd.Flags().IntVar(&feedPage, "page", 1, "Page to show (foryou, chronological)")
	feedCmd.Flags().IntVar(&feedLimit, "limit", 15, "Items per page, at most 50 (foryou, chronological)")
	feedCmd.Flags().StringVar(&feedType, "type", "all", "all, tweet, bluesky or article (chronological)")
	feedCmd.Flags().StringVar(&feedRegion, "region", "", "Only this region (chronological)")
	rootCmd.AddCommand(feedCmd)
}
