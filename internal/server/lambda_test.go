package server

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLambdaHandlerTranslatesRequest(t *testing.T) {
	var got *http.Request
	var gotBody string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"status":"Success"}`))
	})

	event := events.APIGatewayProxyRequest{
		HTTPMethod:            http.MethodPost,
		Path:                  "/get-articles",
		QueryStringParameters: map[string]string{"username": "alice"},
		Headers:               map[string]string{"Authorization": "Bearer abc"},
		Body:                  base64.StdEncoding.EncodeToString([]byte(`{"username":"alice"}`)),
		IsBase64Encoded:       true,
	}
	event.RequestContext.RequestID = "req-1"

	resp, err := LambdaHandler(h)(context.Background(), event)
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/get-articles", got.URL.Path)
	assert.Equal(t, "alice", got.URL.Query().Get("username"))
	assert.Equal(t, "Bearer abc", got.Header.Get("Authorization"))
	assert.Equal(t, "req-1", got.Header.Get("X-Request-ID"))
	assert.Equal(t, `{"username":"alice"}`, gotBody)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, `{"status":"Success"}`, resp.Body)
	assert.False(t, resp.IsBase64Encoded)
	assert.Equal(t, []string{"application/json"}, resp.MultiValueHeaders["Content-Type"])
}

func TestLambdaHandlerEncodesBinaryBodies(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte{0xff, 0xfe, 0x00})
	})
	resp, err := LambdaHandler(h)(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet, Path: "/x"})
	require.NoError(t, err)
	assert.True(t, resp.IsBase64Encoded)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte{0xff, 0xfe, 0x00}), resp.Body)
}

func TestLambdaHandlerRejectsBadBase64(t *testing.T) {
	h := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { t.Fatal("handler should not run") })
	resp, err := LambdaHandler(h)(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost, Path: "/x", Body: "%%%", IsBase64Encoded: true,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
