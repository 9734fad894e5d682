package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"comment-shots/comments"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const threadPage = `{
  "nextPageToken": "%s",
  "items": [
    {
      "snippet": {
        "topLevelComment": {
          "snippet": {
            "authorDisplayName": "@catperson",
            "authorProfileImageUrl": "https://yt3.example/avatar.jpg",
            "textDisplay": "my <b>cat</b> approves",
            "likeCount": 42,
            "publishedAt": "2024-03-01T12:00:00Z"
          }
        }
      },
      "replies": {"comments": [{"id": "r1"}, {"id": "r2"}]}
    },
    {
      "snippet": {
        "topLevelComment": {
          "snippet": {
            "authorDisplayName": "@quiet",
            "textDisplay": "first",
            "likeCount": 0,
            "publishedAt": "2024-03-02T08:30:00Z"
          }
        }
      }
    }
  ]
}`

func TestYouTubeListPage(t *testing.T) {
	var queries []map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/commentThreads" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		q := r.URL.Query()
		queries = append(queries, map[string]string{
			"videoId":   q.Get("videoId"),
			"pageToken": q.Get("pageToken"),
			"key":       q.Get("key"),
			"part":      q.Get("part"),
		})

		next := "page-2"
		if q.Get("pageToken") != "" {
			next = ""
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, threadPage, next)
	}))
	defer srv.Close()

	yt, err := NewYouTube(YouTubeOptions{BaseURL: srv.URL, APIKey: "secret"})
	require.NoError(t, err)

	page, err := yt.ListPage(context.Background(), "v1", "")
	require.NoError(t, err)
	require.Equal(t, "page-2", page.NextToken)

	want := []comments.Comment{
		{
			Avatar:     "https://yt3.example/avatar.jpg",
			Username:   "@catperson",
			DatePosted: "2024-03-01T12:00:00Z",
			LikeCount:  42,
			ReplyCount: 2,
			Content:    "my <b>cat</b> approves",
		},
		{
			Username:   "@quiet",
			DatePosted: "2024-03-02T08:30:00Z",
			Content:    "first",
		},
	}
	if diff := cmp.Diff(want, page.Comments); diff != "" {
		t.Fatalf("unexpected comments (-want +got):\n%s", diff)
	}

	page, err = yt.ListPage(context.Background(), "v1", "page-2")
	require.NoError(t, err)
	require.Empty(t, page.NextToken)

	require.Len(t, queries, 2)
	require.Equal(t, map[string]string{"videoId": "v1", "pageToken": "", "key": "secret", "part": "snippet,replies"}, queries[0])
	require.Equal(t, "page-2", queries[1]["pageToken"])
}

func TestYouTubeListPageAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error": {"code": 403, "message": "commentsDisabled"}}`)
	}))
	defer srv.Close()

	yt, err := NewYouTube(YouTubeOptions{BaseURL: srv.URL, APIKey: "secret"})
	require.NoError(t, err)

	_, err = yt.ListPage(context.Background(), "v1", "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "403")
	require.Contains(t, err.Error(), "commentsDisabled")
}

func TestNewYouTubeRequiresKey(t *testing.T) {
	_, err := NewYouTube(YouTubeOptions{})
	require.Error(t, err)
}

func TestNewYouTubeClampsPageSize(t *testing.T) {
	yt, err := NewYouTube(YouTubeOptions{APIKey: "k", PageSize: 1000})
	require.NoError(t, err)
	require.Equal(t, MaxYouTubePageSize, yt.pageSize)

	yt, err = NewYouTube(YouTubeOptions{APIKey: "k", PageSize: 20, RequestsPerSecond: 2})
	require.NoError(t, err)
	require.Equal(t, 20, yt.pageSize)
	require.NotNil(t, yt.limiter)
}
