package cmd

import (
	"strings"
	"testing"
)

func TestCommandTree(t *testing.T) {
	paths := [][]string{
		{"login"}, {"logout"}, {"whoami"}, {"region"},
		{"feed"}, {"articles"}, {"tweets"}, {"trending"}, {"search"}, {"related"}, {"explain"},
		{"follow"}, {"unfollow"}, {"following"}, {"followers"}, {"users"},
		{"requests", "send"}, {"requests", "accept"}, {"requests", "reject"},
		{"share", "article"}, {"share", "tweet"},
		{"save", "article"}, {"save", "tweet"},
		{"unsave", "article"}, {"unsave", "tweet"},
		{"saved"}, {"shared"}, {"reposts"},
		{"comment", "article"}, {"comment", "tweet"},
		{"comments", "article"}, {"comments", "tweet"},
		{"watch"}, {"version"}, {"completion"},
	}
	for _, p := range paths {
		c, _, err := rootCmd.Find(p)
		if err != nil {
			t.Errorf("%s: %v", strings.Join(p, " "), err)
			continue
		}
		if c.Name() != p[len(p)-1] {
			t.Errorf("%s resolved to %q", strings.Join(p, " "), c.Name())
		}
	}
}

func TestFeedFlags(t *testing.T) {
	for _, name := range []string{"mode", "category", "server", "ratio", "page", "limit", "type", "region"} {
		if feedCmd.Flags().Lookup(name) == nil {
			t.Errorf("feed is missing --%s", name)
		}
	}
	if got := feedCmd.Flags().Lookup("mode").DefValue; got != "mynews" {
		t.Errorf("feed --mode defaults to %q, want mynews", got)
	}
	if trendingCmd.Flags().Lookup("region") == nil {
		t.Error("trending is missing --region")
	}
}

func TestOptionalArg(t *testing.T) {
	if got := optionalArg(nil); got != "" {
		t.Errorf("optionalArg(nil) = %q", got)
	}
	if got := optionalArg([]string{"bob"}); got != "bob" {
		t.Errorf("optionalArg(bob) = %q", got)
	}
}
