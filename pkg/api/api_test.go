package api

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/chronically/chronically/internal/container"
	"github.com/chronically/chronically/internal/models"
	"github.com/chronically/chronically/internal/server"
	"github.com/chronically/chronically/internal/testutil"
	"github.com/chronically/chronically/pkg/client"
	"github.com/chronically/chronically/pkg/config"
	clierrors "github.com/chronically/chronically/pkg/errors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

// APITestSuite runs the client calls against a real router on sqlite.
type APITestSuite struct {
	suite.Suite
	db     *gorm.DB
	mock   *container.MockContainer
	server *httptest.Server
	now    time.Time
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}

func (s *APITestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.now = time.Now().UTC().Truncate(time.Second)
	s.db = testutil.NewDB(s.T())
	s.mock = container.NewMock(s.db)
	r, err := server.NewRouter(s.mock.Container)
	s.Require().NoError(err)
	s.server = httptest.NewServer(r)

	s.Require().NoError(config.Init(filepath.Join(s.T().TempDir(), "config.toml")))
	config.Set("api.base_url", s.server.URL)
	client.Init()

	testutil.CreateUser(s.T(), s.db, "alice")
	testutil.CreateUser(s.T(), s.db, "bob")
}

func (s *APITestSuite) TearDownTest() {
	s.server.Close()
	_ = s.mock.Clean(context.Background())
}

func (s *APITestSuite) loginAs(username string) {
	resp, err := CheckLogin(username, "hash-"+username)
	s.Require().NoError(err)
	s.Require().NotEmpty(resp.Token)
	client.SetAuthToken(resp.Token)
}

func (s *APITestSuite) TestContentReads() {
	ctx := context.Background()
	a := testutil.CreateArticle(s.T(), s.db, "Rates cut", "Business", s.now.Add(-time.Hour), 7)
	testutil.CreateArticle(s.T(), s.db, "Rates held", "Business", s.now.Add(-2*time.Hour), 7)
	testutil.CreateTweet(s.T(), s.db, "https://x.com/a/1", "goal!", "Football", s.now.Add(-time.Minute), 10)

	articles, err := GetArticles(ctx, "Business")
	s.Require().NoError(err)
	s.Len(articles, 2)

	none, err := GetArticles(ctx, "Gaming")
	s.Require().NoError(err)
	s.Empty(none)

	all, err := GetTweets(ctx, "")
	s.Require().NoError(err)
	s.Require().Len(all, 1)
	s.Equal("goal!", all[0].Tweet)

	got, err := GetArticle(a.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal("Rates cut", got.Headline)

	missing, err := GetArticle(9999)
	s.Require().NoError(err)
	s.Nil(missing)

	related, err := GetRelated(a.ID)
	s.Require().NoError(err)
	s.Require().Len(related, 1)
	s.Equal("Rates held", related[0].Headline)

	refs, err := SearchContent("Rates")
	s.Require().NoError(err)
	s.Len(refs, 2)
}

func (s *APITestSuite) TestLoginAndWhoAmI() {
	_, err := CheckLogin("alice", "wrong")
	s.Require().Error(err)
	s.Equal(clierrors.ErrorTypeAuth, clierrors.CategorizeError(err).Type)

	s.loginAs("alice")
	name, err := GetUsername()
	s.Require().NoError(err)
	s.Equal("alice", name)

	client.ClearAuthToken()
	_, err = GetUsername()
	s.Require().Error(err)
	s.Equal(401, err.(*APIError).StatusCode)
}

func (s *APITestSuite) TestFollowShareAndSave() {
	a := testutil.CreateArticle(s.T(), s.db, "Storm warning", "World", s.now, -1)

	s.loginAs("alice")
	msg, err := Follow("bob")
	s.Require().NoError(err)
	s.Equal("Successfully followed the user.", msg)

	_, err = Follow("bob")
	s.Require().Error(err)
	s.Equal(clierrors.ErrorTypeValidation, clierrors.CategorizeError(err).Type)

	following, err := GetFollowing("")
	s.Require().NoError(err)
	s.Equal([]string{"bob"}, following)

	followers, err := GetFollowers("")
	s.Require().NoError(err)
	s.Empty(followers)

	s.loginAs("bob")
	_, err = ShareArticle(a.ID)
	s.Require().NoError(err)
	_, err = ShareArticle(a.ID)
	s.Equal(clierrors.ErrorTypeConflict, clierrors.CategorizeError(err).Type)

	s.loginAs("alice")
	shared, err := GetSharedContent()
	s.Require().NoError(err)
	s.Require().Len(shared, 1)
	s.Equal("bob", shared[0].Username)

	reposts, err := GetFriendsReposts(1, 10)
	s.Require().NoError(err)
	s.Require().Len(reposts, 1)
	s.Equal("bob", reposts[0].RepostedBy)
	s.Require().NotNil(reposts[0].OriginalContent.Article)
	s.Equal("Storm warning", reposts[0].OriginalContent.Article.Headline)

	_, err = SaveArticle(a.ID)
	s.Require().NoError(err)
	saved, err := GetSaved()
	s.Require().NoError(err)
	s.Require().Len(saved, 1)
	s.Equal("article", saved[0].Type)

	_, err = UnsaveArticle(a.ID)
	s.Require().NoError(err)
	_, err = UnsaveArticle(a.ID)
	s.True(IsNotFound(err))
}

func (s *APITestSuite) TestComments() {
	link := "https://x.com/a/2"
	testutil.CreateTweet(s.T(), s.db, link, "news", "World", s.now, 1)

	s.loginAs("alice")
	_, err := CommentTweet(link, "first", 0)
	s.Require().NoError(err)
	comments, err := GetTweetComments(link)
	s.Require().NoError(err)
	s.Require().Len(comments, 1)

	_, err = CommentTweet(link, "reply", comments[0].CommentID)
	s.Require().NoError(err)
	comments, err = GetTweetComments(link)
	s.Require().NoError(err)
	s.Require().Len(comments, 2)
	s.Require().NotNil(comments[1].ParentCommentID)
	s.Equal(comments[0].CommentID, *comments[1].ParentCommentID)
}

func (s *APITestSuite) TestFollowRequests() {
	s.loginAs("alice")
	_, err := SendFollowRequest("bob")
	s.Require().NoError(err)

	s.loginAs("bob")
	pending, err := GetPendingRequests()
	s.Require().NoError(err)
	s.Equal([]string{"alice"}, pending)

	_, err = AcceptFollowRequest("alice")
	s.Require().NoError(err)
	pending, err = GetPendingRequests()
	s.Require().NoError(err)
	s.Empty(pending)

	followers, err := GetFollowers("bob")
	s.Require().NoError(err)
	s.Equal([]string{"alice"}, followers)
}

type cannedExplainer struct{}

func (cannedExplainer) ExplainTweet(context.Context, *models.Tweet) (string, error) {
	return "tweet context", nil
}

func (cannedExplainer) ExplainArticle(_ context.Context, a *models.Article) (string, error) {
	return "about " + a.Headline, nil
}

func (s *APITestSuite) TestExplainArticle() {
	a := testutil.CreateArticle(s.T(), s.db, "Budget vote", "Politics", s.now, 0)

	_, err := ExplainArticle(a.ID)
	s.True(IsNotFound(err))

	s.mock.WithMockExplainer(cannedExplainer{})
	r, err := server.NewRouter(s.mock.Container)
	s.Require().NoError(err)
	s.server.Close()
	s.server = httptest.NewServer(r)
	config.Set("api.base_url", s.server.URL)
	client.Init()

	text, err := ExplainArticle(a.ID)
	s.Require().NoError(err)
	s.Equal("about Budget vote", text)
}

func (s *APITestSuite) TestRegionAndFeeds() {
	ctx := context.Background()
	local := testutil.CreateTweet(s.T(), s.db, "https://x.com/a/eu", "local", "World", s.now.Add(-time.Hour), 1)
	s.Require().NoError(s.db.Model(local).Update("Region", "EU").Error)
	testutil.CreateTweet(s.T(), s.db, "https://x.com/a/new", "newer", "World", s.now, 1)
	testutil.CreateArticle(s.T(), s.db, "Summit", "World", s.now.Add(-30*time.Minute), 0)

	s.loginAs("alice")
	region, err := GetRegion("")
	s.Require().NoError(err)
	s.Empty(region)

	msg, err := SetRegion("EU")
	s.Require().NoError(err)
	s.Equal("Region updated successfully for user alice", msg)
	region, err = GetRegion("alice")
	s.Require().NoError(err)
	s.Equal("EU", region)

	ranked, err := GetForYouFeed(1, 10)
	s.Require().NoError(err)
	s.Require().Len(ranked, 2)
	s.Equal("https://x.com/a/eu", ranked[0].Tweet.TweetLink)
	s.Equal(75, ranked[0].Score)

	items, err := GetChronologicalFeed(ChronologicalQuery{Limit: 2})
	s.Require().NoError(err)
	s.Require().Len(items, 2)
	s.Equal("newer", items[0].Tweet.Tweet)
	s.Equal("Summit", items[1].Article.Headline)

	articles, err := GetChronologicalFeed(ChronologicalQuery{ItemType: "article"})
	s.Require().NoError(err)
	s.Len(articles, 1)

	trending, err := GetTrending("EU")
	s.Require().NoError(err)
	s.Require().Len(trending, 1)
	s.Equal("local", trending[0].Tweet)

	s.Require().NoError(TrackInteraction(ctx, "tweet", "https://x.com/a/new", "view"))
	err = TrackInteraction(ctx, "video", "1", "view")
	s.Equal(clierrors.ErrorTypeValidation, clierrors.CategorizeError(err).Type)

	saved, err := IsTweetSaved("https://x.com/a/new")
	s.Require().NoError(err)
	s.False(saved)
	_, err = SaveTweet("https://x.com/a/new")
	s.Require().NoError(err)
	saved, err = IsTweetSaved("https://x.com/a/new")
	s.Require().NoError(err)
	s.True(saved)
}
