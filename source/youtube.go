package source

import (
	"context"
	"strconv"

	"comment-shots/comments"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// DefaultYouTubeURL is the base URL of the YouTube Data API.
const DefaultYouTubeURL = "https://www.googleapis.com/youtube/v3"

// MaxYouTubePageSize is the largest page the commentThreads endpoint serves.
const MaxYouTubePageSize = 100

// YouTubeOptions configures a YouTube source.
type YouTubeOptions struct {
	// BaseURL defaults to DefaultYouTubeURL.
	BaseURL string

	// APIKey is the pre-issued credential sent with every request.
	APIKey string

	// PageSize defaults to MaxYouTubePageSize.
	PageSize int

	// RequestsPerSecond paces page requests, zero disables pacing.
	RequestsPerSecond float64
}

// YouTube lists top level comment threads of a video through the YouTube Data
// API.
type YouTube struct {
	http     *resty.Client
	apiKey   string
	pageSize int
	limiter  *rate.Limiter
}

// NewYouTube returns a source bound to the given credential.
func NewYouTube(opts YouTubeOptions) (*YouTube, error) {
	if opts.APIKey == "" {
		return nil, errors.New("an api key is required for the youtube source")
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultYouTubeURL
	}

	pageSize := opts.PageSize
	if pageSize <= 0 || pageSize > MaxYouTubePageSize {
		pageSize = MaxYouTubePageSize
	}

	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetHeader("Accept", "application/json")

	y := &YouTube{
		http:     client,
		apiKey:   opts.APIKey,
		pageSize: pageSize,
	}
	if opts.RequestsPerSecond > 0 {
		y.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return y, nil
}

type commentThreadList struct {
	NextPageToken string          `json:"nextPageToken"`
	Items         []commentThread `json:"items"`
}

type commentThread struct {
	Snippet struct {
		TopLevelComment struct {
			Snippet commentSnippet `json:"snippet"`
		} `json:"topLevelComment"`
	} `json:"snippet"`
	Replies struct {
		Comments []struct {
			ID string `json:"id"`
		} `json:"comments"`
	} `json:"replies"`
}

type commentSnippet struct {
	AuthorDisplayName     string `json:"authorDisplayName"`
	AuthorProfileImageURL string `json:"authorProfileImageUrl"`
	TextDisplay           string `json:"textDisplay"`
	LikeCount             int    `json:"likeCount"`
	PublishedAt           string `json:"publishedAt"`
}

type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ListPage requests one page of comment threads for the video.
func (y *YouTube) ListPage(ctx context.Context, videoID, token string) (*Page, error) {
	if y.limiter != nil {
		if err := y.limiter.Wait(ctx); err != nil {
			return nil, errors.Wrap(err, "could not wait for the request limiter")
		}
	}

	params := map[string]string{
		"part":       "snippet,replies",
		"videoId":    videoID,
		"maxResults": strconv.Itoa(y.pageSize),
		"textFormat": "html",
		"key":        y.apiKey,
	}
	if token != "" {
		params["pageToken"] = token
	}

	var list commentThreadList
	var apiErr apiErrorResponse
	res, err := y.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&list).
		SetError(&apiErr).
		Get("/commentThreads")
	if err != nil {
		return nil, errors.Wrap(err, "could not request comment threads")
	}
	if res.IsError() {
		return nil, errors.Errorf("comment threads request for %s returned %d: %s", videoID, res.StatusCode(), apiErr.Error.Message)
	}

	logrus.WithFields(logrus.Fields{
		"videoID":  videoID,
		"comments": len(list.Items),
		"hasNext":  list.NextPageToken != "",
	}).Debug("fetched comment page")

	page := &Page{
		Comments:  make([]comments.Comment, 0, len(list.Items)),
		NextToken: list.NextPageToken,
	}
	for _, item := range list.Items {
		page.Comments = append(page.Comments, item.toComment())
	}

	return page, nil
}

func (t *commentThread) toComment() comments.Comment {
	snippet := t.Snippet.TopLevelComment.Snippet

	return comments.Comment{
		Avatar:     snippet.AuthorProfileImageURL,
		Username:   snippet.AuthorDisplayName,
		DatePosted: snippet.PublishedAt,
		LikeCount:  snippet.LikeCount,
		ReplyCount: len(t.Replies.Comments),
		Content:    snippet.TextDisplay,
	}
}
