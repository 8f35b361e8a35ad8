package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_GetPageSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/page/Main_Page", r.URL.Path)
		assert.Equal(t, "GET", r.Method)

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"id": 15580374,
			"key": "Main_Page",
			"title": "Main Page",
			"latest": {"id": 1234, "timestamp": "2024-05-01T12:30:00Z"},
			"content_model": "wikitext",
			"source": "Hello [[World]]"
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	page, err := client.GetPageSource(context.Background(), "Main Page")
	require.NoError(t, err)

	assert.Equal(t, 15580374, page.ID)
	assert.Equal(t, "Main Page", page.Title)
	assert.Equal(t, "wikitext", page.ContentModel)
	assert.Equal(t, "Hello [[World]]", page.Source)
	require.NotNil(t, page.Latest)
	assert.Equal(t, 1234, page.Latest.ID)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC), page.Latest.Timestamp.UTC())
}

func TestClient_GetPageSource_EscapesTitle(t *testing.T) {
	var rawPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawPath = r.URL.EscapedPath()
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"title": "x"}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "").GetPageSource(context.Background(), "Template:A/B c?")
	require.NoError(t, err)
	assert.Equal(t, "/v1/page/Template:A%2FB_c%3F", rawPath)
}

func TestClient_GetPageSource_EmptyTitle(t *testing.T) {
	_, err := NewClient("http://unused", "").GetPageSource(context.Background(), "  ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page title is required")
}

func TestClient_GetPageSource_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "").GetPageSource(context.Background(), "X")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse page response")
}

func TestTime_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{name: "rfc3339", input: `"2024-05-01T12:30:00Z"`, want: time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)},
		{name: "null", input: `null`},
		{name: "empty", input: `""`},
		{name: "garbage", input: `"yesterday"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Time
			err := got.UnmarshalJSON([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got.Time))
		})
	}
}

func TestTime_MarshalJSON(t *testing.T) {
	b, err := Time{}.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))

	b, err = Time{time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)}.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"2024-05-01T12:30:00Z"`, string(b))
}
