package service

import (
	"fmt"

	"github.com/chronically/chronically/pkg/api"
	"github.com/chronically/chronically/pkg/output"
)

// SocialService manages follows and friend requests
type SocialService struct{}

// NewSocialService creates a new social service
func NewSocialService() *SocialService {
	return &SocialService{}
}

// Follow follows username
func (ss *SocialService) Follow(username string) error {
	msg, err := api.Follow(username)
	if err != nil {
		return err
	}
	output.PrintSuccess("✓ %s", msg)
	return nil
}

// Unfollow stops following username
func (ss *SocialService) Unfollow(username string) error {
	msg, err := api.Unfollow(username)
	if err != nil {
		return err
	}
	output.PrintSuccess("✓ %s", msg)
	return nil
}

// Following prints who username follows; empty means the caller
func (ss *SocialService) Following(username string) error {
	names, err := api.GetFollowing(username)
	if err != nil {
		return fmt.Errorf("failed to fetch followed users: %w", err)
	}
	if len(names) == 0 {
		output.PrintInfo("Not following anyone yet.")
		return nil
	}
	return output.PrintList(names, namesTable("Following", names))
}

// Followers prints who follows username; empty means the caller
func (ss *SocialService) Followers(username string) error {
	names, err := api.GetFollowers(username)
	if err != nil {
		return fmt.Errorf("failed to fetch followers: %w", err)
	}
	if len(names) == 0 {
		output.PrintInfo("No followers yet.")
		return nil
	}
	return output.PrintList(names, namesTable("Followers", names))
}

// SendRequest asks username to become friends
func (ss *SocialService) SendRequest(username string) error {
	msg, err := api.SendFollowRequest(username)
	if err != nil {
		return err
	}
	output.PrintSuccess("✓ %s", msg)
	return nil
}

// AcceptRequest accepts the pending request from username
func (ss *SocialService) AcceptRequest(username string) error {
	msg, err := api.AcceptFollowRequest(username)
	if err != nil {
		return err
	}
	output.PrintSuccess("✓ %s", msg)
	return nil
}

// RejectRequest declines the pending request from username
func (ss *SocialService) RejectRequest(username string) error {
	msg, err := api.RejectFollowRequest(username)
	if err != nil {
		return err
	}
	output.PrintSuccess("✓ %s", msg)
	return nil
}

// PendingRequests prints who asked the caller to be friends
func (ss *SocialService) PendingRequests() error {
	names, err := api.GetPendingRequests()
	if err != nil {
		return fmt.Errorf("failed to fetch pending requests: %w", err)
	}
	if len(names) == 0 {
		output.PrintInfo("No pending requests.")
		return nil
	}
	return output.PrintList(names, namesTable("Requested by", names))
}

// SearchUsers prints usernames containing query
func (ss *SocialService) SearchUsers(query string) error {
	names, err := api.SearchUsers(query)
	if err != nil {
		return fmt.Errorf("failed to search users: %w", err)
	}
	if len(names) == 0 {
		output.PrintInfo("No users match %q.", query)
		return nil
	}
	return output.PrintList(names, namesTable("Username", names))
}
