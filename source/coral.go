package source

import (
	"context"
	"time"

	"comment-shots/comments"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// DefaultCoralPageSize is the number of comments read per page from Coral.
const DefaultCoralPageSize = 100

// CoralOptions configures a Coral source.
type CoralOptions struct {
	TenantID string

	// SiteID optionally limits comments to a single site.
	SiteID string

	// PageSize defaults to DefaultCoralPageSize.
	PageSize int
}

// Coral lists visible comments of a story from a Coral database. Identifiers
// are story IDs and page tokens are the hex ObjectID of the last comment of
// the previous page.
type Coral struct {
	db       *mongo.Database
	tenantID string
	siteID   string
	pageSize int
}

// NewCoral returns a source reading from the given database.
func NewCoral(db *mongo.Database, opts CoralOptions) *Coral {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultCoralPageSize
	}

	return &Coral{
		db:       db,
		tenantID: opts.TenantID,
		siteID:   opts.SiteID,
		pageSize: pageSize,
	}
}

// coralComment is a Comment in Coral joined with its author.
type coralComment struct {
	ID           primitive.ObjectID `bson:"_id"`
	CreatedAt    time.Time          `bson:"createdAt"`
	ActionCounts map[string]int     `bson:"actionCounts"`
	ChildIDs     []string           `bson:"childIDs"`
	Revisions    []struct {
		Body string `bson:"body"`
	} `bson:"revisions"`
	Author struct {
		Username string `bson:"username"`
		Avatar   string `bson:"avatar"`
	} `bson:"author"`
}

func (cc *coralComment) toComment() comments.Comment {
	var body string
	if len(cc.Revisions) > 0 {
		body = cc.Revisions[len(cc.Revisions)-1].Body
	}

	return comments.Comment{
		Avatar:     cc.Author.Avatar,
		Username:   cc.Author.Username,
		DatePosted: cc.CreatedAt.UTC().Format(time.RFC3339),
		LikeCount:  cc.ActionCounts["REACTION"],
		ReplyCount: len(cc.ChildIDs),
		Content:    body,
	}
}

// pipeline builds the aggregation that reads one page of a story's visible
// comments and joins each with its author.
func (c *Coral) pipeline(storyID, token string) (mongo.Pipeline, error) {
	// Create the $match clause that will limit the documents processed.
	match := bson.D{
		primitive.E{Key: "tenantID", Value: c.tenantID},
		primitive.E{Key: "storyID", Value: storyID},
		primitive.E{
			Key: "status",
			Value: bson.D{
				primitive.E{
					Key:   "$in",
					Value: []string{"APPROVED", "NONE"},
				},
			},
		},
	}

	if c.siteID != "" {
		match = append(match, primitive.E{Key: "siteID", Value: c.siteID})
	}

	// Continue after the last comment of the previous page.
	if token != "" {
		after, err := primitive.ObjectIDFromHex(token)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid page token %q", token)
		}

		match = append(match, primitive.E{
			Key: "_id",
			Value: bson.D{
				primitive.E{Key: "$gt", Value: after},
			},
		})
	}

	return mongo.Pipeline{
		bson.D{primitive.E{Key: "$match", Value: match}},
		bson.D{primitive.E{Key: "$sort", Value: bson.D{primitive.E{Key: "_id", Value: 1}}}},
		bson.D{primitive.E{Key: "$limit", Value: c.pageSize}},
		bson.D{primitive.E{Key: "$lookup", Value: bson.D{
			primitive.E{Key: "from", Value: "users"},
			primitive.E{Key: "localField", Value: "authorID"},
			primitive.E{Key: "foreignField", Value: "id"},
			primitive.E{Key: "as", Value: "author"},
		}}},
		bson.D{primitive.E{Key: "$unwind", Value: bson.D{
			primitive.E{Key: "path", Value: "$author"},
			primitive.E{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
		bson.D{primitive.E{Key: "$project", Value: bson.D{
			primitive.E{Key: "createdAt", Value: 1},
			primitive.E{Key: "actionCounts", Value: 1},
			primitive.E{Key: "childIDs", Value: 1},
			primitive.E{Key: "revisions.body", Value: 1},
			primitive.E{Key: "author.username", Value: 1},
			primitive.E{Key: "author.avatar", Value: 1},
		}}},
	}, nil
}

// ListPage reads one page of the story's comments, oldest first.
func (c *Coral) ListPage(ctx context.Context, storyID, token string) (*Page, error) {
	pipeline, err := c.pipeline(storyID, token)
	if err != nil {
		return nil, err
	}

	// Start aggregating.
	cursor, err := c.db.Collection("comments").Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errors.Wrap(err, "could not create the aggregation cursor")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := cursor.Close(ctx); err != nil {
			logrus.WithError(err).Warn("could not close the aggregation cursor")
		}
	}()

	page := &Page{Comments: make([]comments.Comment, 0, c.pageSize)}

	// While there is still results to handle, decode the results.
	var last primitive.ObjectID
	for cursor.Next(ctx) {
		var comment coralComment
		if err := cursor.Decode(&comment); err != nil {
			return nil, errors.Wrap(err, "could not decode comment")
		}

		page.Comments = append(page.Comments, comment.toComment())
		last = comment.ID
	}

	if err := cursor.Err(); err != nil {
		return nil, errors.Wrap(err, "could not iterate on aggregation cursor")
	}

	// A full page may have more after it, a short page is the last one.
	if len(page.Comments) == c.pageSize {
		page.NextToken = last.Hex()
	}

	logrus.WithFields(logrus.Fields{
		"storyID":  storyID,
		"comments": len(page.Comments),
		"hasNext":  page.NextToken != "",
	}).Debug("loaded comment page")

	return page, nil
}
