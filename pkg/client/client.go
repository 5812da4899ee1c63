package client

import (
	"time"

	"github.com/chronically/chronically/pkg/config"
	"github.com/chronically/chronically/pkg/logger"
	"github.com/go-resty/resty/v2"
	jsoniter "github.com/json-iterator/go"
)

// UserAgent identifies the terminal client to the API.
const UserAgent = "Chronically-CLI/0.1.0"

var httpClient *resty.Client

// Init initializes the HTTP client
func Init() {
	httpClient = newClient()
}

func newClient() *resty.Client {
	json := jsoniter.ConfigCompatibleWithStandardLibrary

	c := resty.New()
	c.SetBaseURL(config.GetString("api.base_url"))
	c.SetTimeout(time.Duration(config.GetInt("api.timeout")) * time.Second)
	c.SetHeader("User-Agent", UserAgent)
	c.SetHeader("Content-Type", "application/json")
	c.SetJSONMarshaler(json.Marshal)
	c.SetJSONUnmarshaler(json.Unmarshal)
	c.SetRetryCount(2)
	c.SetRetryWaitTime(500 * time.Millisecond)
	c.AddRetryCondition(func(r *resty.Response, err error) bool {
		return err != nil || r.StatusCode() == 503
	})

	c.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		logger.Debug("HTTP Request", "method", req.Method, "url", req.URL)
		return nil
	})
	c.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		logger.Debug("HTTP Response", "status", resp.StatusCode(), "url", resp.Request.URL, "ms", resp.Time().Milliseconds())
		return nil
	})
	return c
}

// GetClient returns the HTTP client
func GetClient() *resty.Client {
	if httpClient == nil {
		Init()
	}
	return httpClient
}

// SetAuthToken sets the bearer token sent with every request
func SetAuthToken(token string) {
	GetClient().SetAuthToken(token)
}

// ClearAuthToken drops the bearer token
func ClearAuthToken() {
	httpClient = newClient()
}
