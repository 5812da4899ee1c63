package api

import "time"

// TokenResponse is returned by the login routes.
type TokenResponse struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CheckLogin exchanges a username and Auth0 subject for an app token.
func CheckLogin(username, subject string) (*TokenResponse, error) {
	var resp TokenResponse
	body := map[string]string{"username": username, "auth_token": subject}
	if err := post("/check-login", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetUsername returns the account the current token belongs to.
func GetUsername() (string, error) {
	var resp struct {
		Username string `json:"username"`
	}
	if err := post("/get-username", nil, &resp); err != nil {
		return "", err
	}
	return resp.Username, nil
}

// GetRegion returns username's region, or the caller's when username is
// empty. An unset region is "".
func GetRegion(username string) (string, error) {
	var query map[string]string
	if username != "" {
		query = map[string]string{"username": username}
	}
	var resp struct {
		Region *string `json:"region"`
	}
	if err := get("/get-region", query, &resp); err != nil {
		return "", err
	}
	if resp.Region == nil {
		return "", nil
	}
	return *resp.Region, nil
}

// SetRegion sets the caller's region.
func SetRegion(region string) (string, error) {
	return postMessage("/set-region", map[string]string{"region": region})
}
