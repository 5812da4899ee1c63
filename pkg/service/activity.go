package service

import (
	"fmt"

	"github.com/chronically/chronically/pkg/api"
	"github.com/chronically/chronically/pkg/output"
)

// ActivityService shares and saves content
type ActivityService struct{}

// NewActivityService creates a new activity service
func NewActivityService() *ActivityService {
	return &ActivityService{}
}

func printMessage(msg string, err error) error {
	if err != nil {
		return err
	}
	output.PrintSuccess("✓ %s", msg)
	return nil
}

// ShareArticle reposts an article
func (as *ActivityService) ShareArticle(id int64) error {
	return printMessage(api.ShareArticle(id))
}

// ShareTweet reposts a tweet
func (as *ActivityService) ShareTweet(link string) error {
	return printMessage(api.ShareTweet(link))
}

// SaveArticle bookmarks an article
func (as *ActivityService) SaveArticle(id int64) error {
	return printMessage(api.SaveArticle(id))
}

// SaveTweet bookmarks a tweet
func (as *ActivityService) SaveTweet(link string) error {
	return printMessage(api.SaveTweet(link))
}

// UnsaveArticle removes an article bookmark
func (as *ActivityService) UnsaveArticle(id int64) error {
	return printMessage(api.UnsaveArticle(id))
}

// UnsaveTweet removes a tweet bookmark
func (as *ActivityService) UnsaveTweet(link string) error {
	return printMessage(api.UnsaveTweet(link))
}

// Saved prints the caller's bookmarks
func (as *ActivityService) Saved() error {
	saved, err := api.GetSaved()
	if err != nil {
		return fmt.Errorf("failed to fetch saved content: %w", err)
	}
	if len(saved) == 0 {
		output.PrintInfo("Nothing saved yet.")
		return nil
	}
	t := output.Table{Headers: []string{"Type", "Saved", "Ref"}}
	for _, s := range saved {
		t.Rows = append(t.Rows, []string{s.Type, formatTime(s.SavedTime), s.ID})
	}
	return output.PrintList(saved, t)
}

// Shared prints shares by the caller and the users they follow
func (as *ActivityService) Shared() error {
	shared, err := api.GetSharedContent()
	if err != nil {
		return fmt.Errorf("failed to fetch shared content: %w", err)
	}
	if len(shared) == 0 {
		output.PrintInfo("Nothing shared yet. Follow someone to see their shares.")
		return nil
	}
	t := output.Table{Headers: []string{"User", "Type", "Shared", "Ref"}}
	for _, s := range shared {
		t.Rows = append(t.Rows, []string{s.Username, s.ContentType, formatTime(s.SharedAt), s.ContentID})
	}
	return output.PrintList(shared, t)
}

// Reposts prints a page of reposts by the users the caller follows
func (as *ActivityService) Reposts(page, limit int) error {
	reposts, err := api.GetFriendsReposts(page, limit)
	if err != nil {
		return fmt.Errorf("failed to fetch reposts: %w", err)
	}
	if len(reposts) == 0 {
		output.PrintInfo("No reposts on page %d.", page)
		return nil
	}
	t := output.Table{Headers: []string{"By", "Reposted", "Type", "Ref", "Text"}}
	for _, r := range reposts {
		row := itemRow(r.OriginalContent)
		t.Rows = append(t.Rows, []string{r.RepostedBy, formatTime(r.RepostedAt), r.ContentType, row[2], row[3]})
	}
	return output.PrintList(reposts, t)
}
