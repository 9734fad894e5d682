package source

import (
	"context"
	"testing"
	"time"

	"comment-shots/comments"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func stageKey(t *testing.T, stage bson.D) string {
	t.Helper()
	require.Len(t, stage, 1)
	return stage[0].Key
}

func TestCoralPipelineFirstPage(t *testing.T) {
	c := NewCoral(nil, CoralOptions{TenantID: "tenant"})
	require.Equal(t, DefaultCoralPageSize, c.pageSize)

	pipeline, err := c.pipeline("story-1", "")
	require.NoError(t, err)

	var keys []string
	for _, stage := range pipeline {
		keys = append(keys, stageKey(t, stage))
	}
	require.Equal(t, []string{"$match", "$sort", "$limit", "$lookup", "$unwind", "$project"}, keys)

	match := pipeline[0][0].Value.(bson.D).Map()
	require.Equal(t, "tenant", match["tenantID"])
	require.Equal(t, "story-1", match["storyID"])
	require.NotContains(t, match, "_id")
	require.NotContains(t, match, "siteID")

	require.Equal(t, DefaultCoralPageSize, pipeline[2][0].Value)
}

func TestCoralPipelineContinuesAfterToken(t *testing.T) {
	c := NewCoral(nil, CoralOptions{TenantID: "tenant", SiteID: "site", PageSize: 10})

	after := primitive.NewObjectID()
	pipeline, err := c.pipeline("story-1", after.Hex())
	require.NoError(t, err)

	match := pipeline[0][0].Value.(bson.D).Map()
	require.Equal(t, "site", match["siteID"])
	require.Equal(t, bson.D{primitive.E{Key: "$gt", Value: after}}, match["_id"])
	require.Equal(t, 10, pipeline[2][0].Value)

	_, err = c.pipeline("story-1", "not-an-object-id")
	require.Error(t, err)
}

func TestCoralCommentToComment(t *testing.T) {
	created := time.Date(2023, 5, 4, 3, 2, 1, 0, time.UTC)
	raw, err := bson.Marshal(bson.M{
		"_id":          primitive.NewObjectID(),
		"createdAt":    created,
		"actionCounts": bson.M{"REACTION": 7, "FLAG": 1},
		"childIDs":     bson.A{"a", "b", "c"},
		"revisions": bson.A{
			bson.M{"body": "first draft"},
			bson.M{"body": "<p>edited cat</p>"},
		},
		"author": bson.M{"username": "Reader", "avatar": "https://cdn.example/r.png"},
	})
	require.NoError(t, err)

	var doc coralComment
	require.NoError(t, bson.Unmarshal(raw, &doc))

	require.Equal(t, comments.Comment{
		Avatar:     "https://cdn.example/r.png",
		Username:   "Reader",
		DatePosted: "2023-05-04T03:02:01Z",
		LikeCount:  7,
		ReplyCount: 3,
		Content:    "<p>edited cat</p>",
	}, doc.toComment())
}

func TestCoralCommentWithoutRevisions(t *testing.T) {
	var doc coralComment
	got := doc.toComment()
	require.Empty(t, got.Content)
	require.Zero(t, got.LikeCount)
}

func coralDoc(id primitive.ObjectID, username, body string) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "createdAt", Value: time.Date(2023, 5, 4, 3, 2, 1, 0, time.UTC)},
		{Key: "actionCounts", Value: bson.D{{Key: "REACTION", Value: 2}}},
		{Key: "childIDs", Value: bson.A{"reply"}},
		{Key: "revisions", Value: bson.A{bson.D{{Key: "body", Value: body}}}},
		{Key: "author", Value: bson.D{{Key: "username", Value: username}}},
	}
}

func TestCoralListPage(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()

	mt.Run("full page has a next token", func(mt *mtest.T) {
		first, second := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "coral.comments", mtest.FirstBatch,
			coralDoc(first, "one", "a cat"),
			coralDoc(second, "two", "another cat"),
		))

		c := NewCoral(mt.DB, CoralOptions{TenantID: "tenant", PageSize: 2})
		page, err := c.ListPage(context.Background(), "story-1", "")
		require.NoError(mt, err)
		require.Len(mt, page.Comments, 2)
		require.Equal(mt, "one", page.Comments[0].Username)
		require.Equal(mt, "another cat", page.Comments[1].Content)
		require.Equal(mt, 2, page.Comments[1].LikeCount)
		require.Equal(mt, 1, page.Comments[1].ReplyCount)
		require.Equal(mt, second.Hex(), page.NextToken)
	})

	mt.Run("short page is the last one", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "coral.comments", mtest.FirstBatch,
			coralDoc(primitive.NewObjectID(), "one", "a cat"),
		))

		c := NewCoral(mt.DB, CoralOptions{TenantID: "tenant", PageSize: 2})
		page, err := c.ListPage(context.Background(), "story-1", primitive.NewObjectID().Hex())
		require.NoError(mt, err)
		require.Len(mt, page.Comments, 1)
		require.Empty(mt, page.NextToken)
	})

	mt.Run("empty page", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "coral.comments", mtest.FirstBatch))

		c := NewCoral(mt.DB, CoralOptions{TenantID: "tenant"})
		page, err := c.ListPage(context.Background(), "story-1", "")
		require.NoError(mt, err)
		require.Empty(mt, page.Comments)
		require.Empty(mt, page.NextToken)
	})

	mt.Run("aggregate error is wrapped", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Message: "bad pipeline",
			Name:    "BadValue",
		}))

		c := NewCoral(mt.DB, CoralOptions{TenantID: "tenant"})
		_, err := c.ListPage(context.Background(), "story-1", "")
		require.Error(mt, err)
		require.Contains(mt, err.Error(), "could not create the aggregation cursor")
		require.Contains(mt, err.Error(), "bad pipeline")
	})

	mt.Run("cursor error is wrapped", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(42, "coral.comments", mtest.FirstBatch,
				coralDoc(primitive.NewObjectID(), "one", "a cat"),
			),
			mtest.CreateCommandErrorResponse(mtest.CommandError{
				Code:    2,
				Message: "cursor went away",
				Name:    "BadValue",
			}),
		)

		c := NewCoral(mt.DB, CoralOptions{TenantID: "tenant", PageSize: 3})
		_, err := c.ListPage(context.Background(), "story-1", "")
		require.Error(mt, err)
		require.Contains(mt, err.Error(), "could not iterate on aggregation cursor")
	})

	mt.Run("decode error is wrapped", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "coral.comments", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: 42}},
		))

		c := NewCoral(mt.DB, CoralOptions{TenantID: "tenant"})
		_, err := c.ListPage(context.Background(), "story-1", "")
		require.Error(mt, err)
		require.Contains(mt, err.Error(), "could not decode comment")
	})

	mt.Run("bad token fails before querying", func(mt *mtest.T) {
		c := NewCoral(mt.DB, CoralOptions{TenantID: "tenant"})
		_, err := c.ListPage(context.Background(), "story-1", "not-a-token")
		require.Error(mt, err)
	})
}
