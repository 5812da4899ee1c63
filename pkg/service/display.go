package service

import (
	"strconv"
	"time"

	"github.com/chronically/chronically/internal/feed"
	"github.com/chronically/chronically/internal/models"
	"github.com/chronically/chronically/pkg/output"
)

const (
	headlineWidth = 70
	tweetWidth    = 80
	timeLayout    = "2006-01-02 15:04"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

func articlesTable(articles []models.Article) output.Table {
	t := output.Table{Headers: []string{"ID", "Date", "Category", "Headline"}}
	for _, a := range articles {
		t.Rows = append(t.Rows, []string{
			strconv.FormatInt(a.ID, 10),
			formatTime(a.Date),
			a.Category,
			output.Truncate(a.Headline, headlineWidth),
		})
	}
	return t
}

func tweetsTable(tweets []models.Tweet) output.Table {
	t := output.Table{Headers: []string{"Created", "User", "Favs", "Tweet", "Link"}}
	for _, tw := range tweets {
		t.Rows = append(t.Rows, []string{
			formatTime(tw.CreatedAt),
			"@" + tw.Username,
			strconv.Itoa(tw.Favorites),
			output.Truncate(tw.Tweet, tweetWidth),
			tw.TweetLink,
		})
	}
	return t
}

func itemsTable(items []feed.Item) output.Table {
	t := output.Table{Headers: []string{"Type", "Time", "Ref", "Text"}}
	for _, it := range items {
		t.Rows = append(t.Rows, itemRow(it))
	}
	return t
}

func itemRow(it feed.Item) []string {
	switch {
	case it.Article != nil:
		return []string{
			"📰 " + feed.TypeArticle,
			formatTime(it.Article.Date),
			strconv.FormatInt(it.Article.ID, 10),
			output.Truncate(it.Article.Headline, headlineWidth),
		}
	case it.Tweet != nil:
		kind := "🐦 " + feed.TypeTweet
		if it.Tweet.SourceName == models.SourceBluesky {
			kind = "🦋 " + models.SourceBluesky
		}
		return []string{
			kind,
			formatTime(it.Tweet.CreatedAt),
			it.Tweet.TweetLink,
			output.Truncate(it.Tweet.Tweet, tweetWidth),
		}
	}
	return []string{it.Type, "-", "-", "-"}
}

func scoredTable(items []feed.Scored) output.Table {
	t := output.Table{Headers: []string{"Score", "Type", "Time", "Ref", "Text"}}
	for _, it := range items {
		t.Rows = append(t.Rows, append([]string{strconv.Itoa(it.Score)}, itemRow(it.Item)...))
	}
	return t
}

func namesTable(header string, names []string) output.Table {
	t := output.Table{Headers: []string{header}}
	for _, n := range names {
		t.Rows = append(t.Rows, []string{n})
	}
	return t
}
