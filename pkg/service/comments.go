package service

import (
	"fmt"
	"strconv"
	"time"

	"github.com/chronically/chronically/pkg/api"
	clierrors "github.com/chronically/chronically/pkg/errors"
	"github.com/chronically/chronically/pkg/output"
	"github.com/chronically/chronically/pkg/prompter"
)

const maxCommentLines = 20

// CommentService reads and writes comment threads
type CommentService struct{}

// NewCommentService creates a new comment service
func NewCommentService() *CommentService {
	return &CommentService{}
}

// commentRow is the display form shared by article and tweet comments.
type commentRow struct {
	ID       int64
	Parent   *int64
	Username string
	Content  string
	Created  time.Time
}

func commentContent(content string) (string, error) {
	if content != "" {
		return content, nil
	}
	content, err := prompter.PromptMultilineString("Comment (empty line to finish):", maxCommentLines)
	if err != nil {
		return "", err
	}
	if content == "" {
		return "", clierrors.ValidationError("content", "cannot be empty")
	}
	return content, nil
}

// CommentArticle comments on an article, prompting when content is empty
func (cs *CommentService) CommentArticle(id int64, content string, parent int64) error {
	content, err := commentContent(content)
	if err != nil {
		return err
	}
	return printMessage(api.CommentArticle(id, content, parent))
}

// CommentTweet comments on a tweet, prompting when content is empty
func (cs *CommentService) CommentTweet(link, content string, parent int64) error {
	content, err := commentContent(content)
	if err != nil {
		return err
	}
	return printMessage(api.CommentTweet(link, content, parent))
}

// ArticleComments prints an article's comment thread
func (cs *CommentService) ArticleComments(id int64) error {
	comments, err := api.GetArticleComments(id)
	if err != nil {
		return fmt.Errorf("failed to fetch comments: %w", err)
	}
	rows := make([]commentRow, 0, len(comments))
	for _, c := range comments {
		rows = append(rows, commentRow{c.CommentID, c.ParentCommentID, c.Username, c.Content, c.CreatedAt})
	}
	return printThread(comments, rows)
}

// TweetComments prints a tweet's comment thread
func (cs *CommentService) TweetComments(link string) error {
	comments, err := api.GetTweetComments(link)
	if err != nil {
		return fmt.Errorf("failed to fetch comments: %w", err)
	}
	rows := make([]commentRow, 0, len(comments))
	for _, c := range comments {
		rows = append(rows, commentRow{c.CommentID, c.ParentCommentID, c.Username, c.Content, c.CreatedAt})
	}
	return printThread(comments, rows)
}

// printThread indents replies under their parent. Rows arrive oldest
// first, so parents precede replies.
func printThread(raw interface{}, rows []commentRow) error {
	if len(rows) == 0 {
		output.PrintInfo("No comments yet.")
		return nil
	}
	depth := make(map[int64]int, len(rows))
	t := output.Table{Headers: []string{"ID", "When", "User", "Comment"}}
	for _, r := range threadOrder(rows) {
		d := 0
		if r.Parent != nil {
			if pd, ok := depth[*r.Parent]; ok {
				d = pd + 1
			}
		}
		depth[r.ID] = d
		indent := ""
		for i := 0; i < d; i++ {
			indent += "  ↳ "
		}
		t.Rows = append(t.Rows, []string{
			strconv.FormatInt(r.ID, 10),
			formatTime(r.Created),
			r.Username,
			indent + output.Truncate(r.Content, tweetWidth),
		})
	}
	return output.PrintList(raw, t)
}

// threadOrder places each reply directly after its parent's subtree,
// keeping siblings oldest first. Replies to unknown parents go top-level.
func threadOrder(rows []commentRow) []commentRow {
	known := make(map[int64]bool, len(rows))
	for _, r := range rows {
		known[r.ID] = true
	}
	children := make(map[int64][]commentRow)
	var roots []commentRow
	for _, r := range rows {
		if r.Parent != nil && known[*r.Parent] && *r.Parent != r.ID {
			children[*r.Parent] = append(children[*r.Parent], r)
		} else {
			roots = append(roots, r)
		}
	}

	out := make([]commentRow, 0, len(rows))
	var walk func(r commentRow)
	walk = func(r commentRow) {
		out = append(out, r)
		for _, c := range children[r.ID] {
			walk(c)
		}
	}
	for _, r := range roots {
		walk(r)
	}
	return out
}
