package api

type followBody struct {
	Follower string `json:"follower_username,omitempty"`
	Followed string `json:"followed_username,omitempty"`
}

// Follow starts following username.
func Follow(username string) (string, error) {
	return postMessage("/follow_Users", followBody{Followed: username})
}

// Unfollow stops following username.
func Unfollow(username string) (string, error) {
	return postMessage("/remove_follow_Users", followBody{Followed: username})
}

// GetFollowing lists who username follows; empty means the caller.
func GetFollowing(username string) ([]string, error) {
	var resp struct {
		Followed []string `json:"followedUsernames"`
	}
	err := post("/get_followed_users", followBody{Follower: username}, &resp)
	if IsNotFound(err) {
		return nil, nil
	}
	return resp.Followed, err
}

// GetFollowers lists who follows username; empty means the caller.
func GetFollowers(username string) ([]string, error) {
	var resp struct {
		Followers []string `json:"followerUsernames"`
	}
	err := post("/get_followers", followBody{Followed: username}, &resp)
	if IsNotFound(err) {
		return nil, nil
	}
	return resp.Followers, err
}

// SendFollowRequest asks username to become friends.
func SendFollowRequest(username string) (string, error) {
	return postMessage("/send_follow_request", followBody{Followed: username})
}

// AcceptFollowRequest accepts the pending request from requester.
func AcceptFollowRequest(requester string) (string, error) {
	return postMessage("/accept_follow_request", followBody{Follower: requester})
}

// RejectFollowRequest declines the pending request from requester.
func RejectFollowRequest(requester string) (string, error) {
	return postMessage("/reject_follow_request", followBody{Follower: requester})
}

// GetPendingRequests lists who asked the caller to be friends.
func GetPendingRequests() ([]string, error) {
	var resp struct {
		Pending []string `json:"pendingUsernames"`
	}
	err := post("/get_pending_users", followBody{}, &resp)
	return resp.Pending, err
}

// SearchUsers finds usernames containing query.
func SearchUsers(query string) ([]string, error) {
	var resp struct {
		Users []string `json:"similar_users"`
	}
	err := post("/get-similar_users_searched", map[string]string{"username": query}, &resp)
	if IsNotFound(err) {
		return nil, nil
	}
	return resp.Users, err
}
