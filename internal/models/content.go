package models

import (
	"strings"
	"time"
)

// Article is a news article. Articles sharing a ClusterID cover the same story;
// ClusterID 0 or -1 means unclustered.
type Article struct {
	ID               int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Link             string    `gorm:"column:link;type:text" json:"link"`
	Headline         string    `gorm:"column:headline;type:text" json:"headline"`
	Category         string    `gorm:"column:category;type:varchar(128);index" json:"category"`
	ShortDescription string    `gorm:"column:short_description;type:text" json:"short_description"`
	Authors          string    `gorm:"column:authors;type:text" json:"authors"`
	Date             time.Time `gorm:"column:date;index" json:"date"`
	ClusterID        int64     `gorm:"column:clusterID;index" json:"clusterID"`
	ImageURL         string    `gorm:"column:image_url;type:text" json:"image_url"`
	Explanation      string    `gorm:"column:Explanation;type:text" json:"Explanation"`
	Region           string    `gorm:"column:Region;type:varchar(64);index" json:"Region"`
}

func (Article) TableName() string {
	return "Articles"
}

// Unclustered reports whether the article belongs to no story cluster.
func (a *Article) Unclustered() bool {
	return a.ClusterID == 0 || a.ClusterID == -1
}

// Social post sources stored in the Tweets table.
const (
	SourceTweet   = "tweet"
	SourceBluesky = "bluesky"
)

// Tweet is a collected tweet, keyed by its permalink. Categories is a
// comma-separated list.
type Tweet struct {
	TweetLink   string    `gorm:"column:Tweet_Link;type:varchar(512);primaryKey" json:"Tweet_Link"`
	Username    string    `gorm:"column:Username;type:varchar(255);index" json:"Username"`
	Tweet       string    `gorm:"column:Tweet;type:text" json:"Tweet"`
	CreatedAt   time.Time `gorm:"column:Created_At;index" json:"Created_At"`
	Retweets    int       `gorm:"column:Retweets" json:"Retweets"`
	Favorites   int       `gorm:"column:Favorites" json:"Favorites"`
	MediaURL    string    `gorm:"column:Media_URL;type:text" json:"Media_URL"`
	Explanation string    `gorm:"column:Explanation;type:text" json:"Explanation"`
	Categories  string    `gorm:"column:categories;type:text" json:"categories"`
	SourceName  string    `gorm:"column:sourcename;type:varchar(32);default:tweet;index" json:"sourcename"`
	Region      string    `gorm:"column:Region;type:varchar(64);index" json:"Region"`
}

// CategoryList splits Categories into trimmed, non-empty names.
func (t *Tweet) CategoryList() []string {
	var out []string
	for _, c := range strings.Split(t.Categories, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func (Tweet) TableName() string {
	return "Tweets"
}

// Interaction kinds the clients report. Other values are stored as sent.
const (
	InteractionView  = "view"
	InteractionSave  = "save"
	InteractionShare = "share"
)

// UserInteraction records one thing a user did with an article or tweet.
// ItemType matches the Tweets sourcename or "article"; ItemID is the tweet
// link or the article id.
type UserInteraction struct {
	InteractionID   int64     `gorm:"column:interaction_id;primaryKey;autoIncrement" json:"interaction_id"`
	Username        string    `gorm:"column:username;type:varchar(255);not null;index" json:"username"`
	ItemID          string    `gorm:"column:item_id;type:varchar(512);not null;index:idx_interaction_item" json:"item_id"`
	ItemType        string    `gorm:"column:item_type;type:varchar(32);not null;index:idx_interaction_item" json:"item_type"`
	InteractionType string    `gorm:"column:interaction_type;type:varchar(32);not null" json:"interaction_type"`
	Region          *string   `gorm:"column:region;type:varchar(64)" json:"region"`
	Timestamp       time.Time `gorm:"column:interaction_timestamp;autoCreateTime;index" json:"interaction_timestamp"`
}

func (UserInteraction) TableName() string {
	return "UserInteractions"
}
