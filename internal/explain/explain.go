// Package explain asks an OpenAI-compatible chat completion endpoint to
// write short explanations of tweets and articles.
package explain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	jsoniter "github.com/json-iterator/go"

	"github.com/chronically/chronically/internal/models"
	"github.com/chronically/chronically/internal/telemetry"
)

// ErrEmptyExplanation is returned when the endpoint answers without text.
var ErrEmptyExplanation = errors.New("no valid explanation generated")

const (
	tweetPrompt = "You are a social media assistant. Explain the following tweet in a professional, " +
		"article-friendly way. Give the context a reader needs and keep it concise."
	articlePrompt = "You are a news assistant. Explain the following article in two or three " +
		"plain sentences for a general reader."
	noDescription = "No description provided."
)

// Explainer writes explanations for content that has none stored.
type Explainer interface {
	ExplainTweet(ctx context.Context, tweet *models.Tweet) (string, error)
	ExplainArticle(ctx context.Context, article *models.Article) (string, error)
}

// Options configures a Client.
type Options struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client talks to the chat completions API.
type Client struct {
	http  *resty.Client
	model string
}

// New builds a Client. BaseURL is the API root, e.g.
// https://api.groq.com/openai/v1.
func New(opts Options) *Client {
	json := jsoniter.ConfigCompatibleWithStandardLibrary
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	c := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(timeout).
		SetTransport(telemetry.NewInstrumentedTransport("llm", nil)).
		SetAuthToken(opts.APIKey).
		SetHeader("Content-Type", "application/json")
	c.JSONMarshal = json.Marshal
	c.JSONUnmarshal = json.Unmarshal
	return &Client{http: c, model: opts.Model}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	TopP        float64   `json:"top_p"`
}

type completionResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// ExplainTweet explains a tweet, mentioning its media when it has any.
func (c *Client) ExplainTweet(ctx context.Context, tweet *models.Tweet) (string, error) {
	content := tweet.Tweet
	if tweet.MediaURL != "" {
		content = fmt.Sprintf("Media: %s\n\n%s", tweet.MediaURL, content)
	}
	return c.complete(ctx, "explain_tweet", completionRequest{
		Messages: []message{
			{Role: "system", Content: tweetPrompt},
			{Role: "user", Content: content},
		},
		Temperature: 0.4,
		MaxTokens:   1024,
		TopP:        1,
	})
}

// ExplainArticle explains an article from its description, falling back to
// the headline.
func (c *Client) ExplainArticle(ctx context.Context, article *models.Article) (string, error) {
	content := noDescription
	switch {
	case strings.TrimSpace(article.ShortDescription) != "":
		content = article.ShortDescription
	case strings.TrimSpace(article.Headline) != "":
		content = article.Headline
	}
	if article.ImageURL != "" {
		content = fmt.Sprintf("Image: %s\n\n%s", article.ImageURL, content)
	}
	return c.complete(ctx, "explain_article", completionRequest{
		Messages: []message{
			{Role: "system", Content: articlePrompt},
			{Role: "user", Content: content},
		},
		Temperature: 0.5,
		MaxTokens:   150,
		TopP:        1,
	})
}

func (c *Client) complete(ctx context.Context, operation string, req completionRequest) (string, error) {
	req.Model = c.model
	ctx, span := telemetry.TraceLLMCall(ctx, operation, c.model)
	defer span.End()

	var out completionResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&out).
		Post("/chat/completions")
	if err != nil {
		telemetry.RecordServiceError(span, err)
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	if resp.IsError() {
		msg := resp.Status()
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		err = fmt.Errorf("completion endpoint returned %d: %s", resp.StatusCode(), msg)
		telemetry.RecordServiceError(span, err)
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", ErrEmptyExplanation
	}
	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyExplanation
	}
	return text, nil
}
