// Package api calls the Chronically HTTP API.
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/chronically/chronically/pkg/client"
	"github.com/chronically/chronically/pkg/logger"
	"github.com/go-resty/resty/v2"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// StatusSuccess is the "status" of most successful responses. Some list
// routes answer 200 with a descriptive status and no data instead.
const StatusSuccess = "Success"

// APIError is a failed response decoded from the server's error envelope.
type APIError struct {
	StatusCode int    `json:"-"`
	Status     string `json:"status"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Field      string `json:"field"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// HTTPStatus lets pkg/errors classify the failure.
func (e *APIError) HTTPStatus() int {
	return e.StatusCode
}

// ParseError decodes the error envelope of a failed response
func ParseError(resp *resty.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode()}
	if err := json.Unmarshal(resp.Body(), apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode())
	}
	return apiErr
}

// IsNotFound reports a 404 from the API
func IsNotFound(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.StatusCode == http.StatusNotFound
}

// envelope is the success body shape shared by list routes.
type envelope[T any] struct {
	Status string `json:"status"`
	Data   T      `json:"data"`
}

// messageResponse is the body of write routes.
type messageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// post sends body as JSON and decodes a 2xx response into result.
func post(path string, body, result interface{}) error {
	return postCtx(context.Background(), path, body, result)
}

func postCtx(ctx context.Context, path string, body, result interface{}) error {
	logger.Debug("POST", "path", path)
	req := client.GetClient().R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}
	resp, err := req.Post(path)
	return check(resp, err)
}

// get decodes a GET response into result.
func get(path string, query map[string]string, result interface{}) error {
	logger.Debug("GET", "path", path)
	resp, err := client.GetClient().R().SetQueryParams(query).SetResult(result).Get(path)
	return check(resp, err)
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return ParseError(resp)
	}
	return nil
}

// postMessage runs a write route and returns its message.
func postMessage(path string, body interface{}) (string, error) {
	var resp messageResponse
	if err := post(path, body, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}
