// Package source retrieves pages of public comments for a content item.
package source

import (
	"context"

	"comment-shots/comments"
)

// Page is one page of comments, in the order the platform returned them.
type Page struct {
	Comments []comments.Comment

	// NextToken continues to the next page, empty when there are no more.
	NextToken string
}

// Source lists comment pages for a content identifier. An empty token
// requests the first page.
type Source interface {
	ListPage(ctx context.Context, identifier, token string) (*Page, error)
}
