package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	client := NewClient("https://en.wikipedia.org/w/rest.php/", "token123")

	assert.NotNil(t, client)
	assert.Equal(t, "https://en.wikipedia.org/w/rest.php", client.baseURL)
	assert.Equal(t, "token123", client.accessToken)
}

func TestClient_AuthHeader(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  string
	}{
		{name: "bearer token", token: "mytoken", want: "Bearer mytoken"},
		{name: "anonymous", token: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var capturedAuth string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				capturedAuth = r.Header.Get("Authorization")
				w.WriteHeader(http.StatusOK)
				w.Write([]byte(`{}`))
			}))
			defer server.Close()

			client := NewClient(server.URL, tt.token)
			_, err := client.do(context.Background(), "GET", "/test")
			require.NoError(t, err)
			assert.Equal(t, tt.want, capturedAuth)
		})
	}
}

func TestClient_Headers(t *testing.T) {
	var capturedHeaders http.Header

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedHeaders = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	_, err := client.do(context.Background(), "GET", "/test")
	require.NoError(t, err)

	assert.Equal(t, "application/json", capturedHeaders.Get("Accept"))
	assert.Equal(t, defaultUserAgent, capturedHeaders.Get("User-Agent"))
}

func TestClient_ErrorResponse(t *testing.T) {
	tests := []struct {
		name           string
		statusCode     int
		responseBody   string
		expectedErrMsg string
	}{
		{
			name:           "404 with english message",
			statusCode:     404,
			responseBody:   `{"errorKey": "rest-nonexistent-title", "messageTranslations": {"en": "The specified title does not exist"}, "httpCode": 404, "httpReason": "Not Found"}`,
			expectedErrMsg: "The specified title does not exist",
		},
		{
			name:           "other language only",
			statusCode:     403,
			responseBody:   `{"errorKey": "rest-permission-denied", "messageTranslations": {"de": "Keine Berechtigung"}}`,
			expectedErrMsg: "Keine Berechtigung",
		},
		{
			name:           "error key only",
			statusCode:     400,
			responseBody:   `{"errorKey": "rest-bad-title"}`,
			expectedErrMsg: "rest-bad-title",
		},
		{
			name:           "empty object",
			statusCode:     500,
			responseBody:   `{}`,
			expectedErrMsg: "Internal Server Error",
		},
		{
			name:           "not json",
			statusCode:     502,
			responseBody:   `bad gateway`,
			expectedErrMsg: "API error (status 502): bad gateway",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.responseBody))
			}))
			defer server.Close()

			client := NewClient(server.URL, "token")
			_, err := client.do(context.Background(), "GET", "/test")

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedErrMsg)
		})
	}
}

func TestClient_ErrorResponseStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"errorKey": "rest-nonexistent-title"}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "").Get(context.Background(), "/v1/page/Nope")

	var apiErr *ErrorResponse
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.True(t, apiErr.NotFound())
}

func TestClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Slow response
		<-r.Context().Done()
	}))
	defer server.Close()

	client := NewClient(server.URL, "token")

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	_, err := client.do(ctx, "GET", "/test")
	require.Error(t, err)
}

func TestClient_URLConstruction(t *testing.T) {
	var capturedPath string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "token")

	tests := []struct {
		inputPath    string
		expectedPath string
	}{
		{"/v1/page/Foo", "/v1/page/Foo"},
		{"v1/page/Foo", "/v1/page/Foo"},
	}

	for _, tt := range tests {
		_, err := client.do(context.Background(), "GET", tt.inputPath)
		require.NoError(t, err)
		assert.Equal(t, tt.expectedPath, capturedPath)
	}
}
