package internal

import (
	"context"
	"fmt"

	"comment-shots/comments"
	"comment-shots/render"
	"comment-shots/source"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// SourceError is returned when the comment source fails mid-run.
type SourceError struct {
	Identifier string
	Err        error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("could not list comments for %s: %v", e.Identifier, e.Err)
}

func (e *SourceError) Cause() error  { return e.Err }
func (e *SourceError) Unwrap() error { return e.Err }

// AcceptFunc handles an accepted comment, usually by rendering it, and
// returns the path of the produced image.
type AcceptFunc func(ctx context.Context, identifier string, comment *comments.Comment) (string, error)

// RunState is the state of a single controller run.
type RunState struct {
	// TotalAccepted counts comments handed to Accept, failed renders
	// included.
	TotalAccepted int
	Token         string
}

// Controller walks the pages of every identifier, evaluates each comment and
// hands accepted ones to Accept until the quota is reached.
type Controller struct {
	Source   source.Source
	Criteria *comments.Criteria
	Accept   AcceptFunc

	// Quota is the most comments accepted in one run, zero means unbounded.
	Quota int

	// FailFast aborts the run on the first render error instead of
	// recording it and moving on.
	FailFast bool

	Report *Report
	Log    *logrus.Entry
}

func (c *Controller) quotaReached(state *RunState) bool {
	return c.Quota > 0 && state.TotalAccepted >= c.Quota
}

// Run processes the identifiers in order. It stops as soon as the quota is
// reached, when every page of every identifier was seen, or on the first
// source error.
func (c *Controller) Run(ctx context.Context, identifiers []string) (RunState, error) {
	if c.Report == nil {
		c.Report = NewReport()
	}
	if c.Log == nil {
		c.Log = logrus.NewEntry(logrus.StandardLogger())
	}

	var state RunState
	for _, identifier := range identifiers {
		if err := c.paginate(ctx, identifier, &state); err != nil {
			return state, err
		}

		if c.quotaReached(&state) {
			c.Log.WithFields(logrus.Fields{
				"identifier": identifier,
				"accepted":   state.TotalAccepted,
			}).Info("quota reached, stopping")
			break
		}
	}

	return state, nil
}

// paginate walks the pages of a single identifier.
func (c *Controller) paginate(ctx context.Context, identifier string, state *RunState) error {
	state.Token = ""

	for {
		page, err := c.Source.ListPage(ctx, identifier, state.Token)
		if err != nil {
			return &SourceError{Identifier: identifier, Err: err}
		}
		c.Report.Pages++

		if err := c.evaluatePage(ctx, identifier, page, state); err != nil {
			return err
		}

		state.Token = page.NextToken
		if state.Token == "" || c.quotaReached(state) {
			return nil
		}
	}
}

// evaluatePage handles the comments of a page in order, stopping the moment
// the quota is reached.
func (c *Controller) evaluatePage(ctx context.Context, identifier string, page *source.Page, state *RunState) error {
	for i := range page.Comments {
		comment := &page.Comments[i]
		log := c.Log.WithFields(logrus.Fields{
			"identifier": identifier,
			"username":   comment.Username,
		})

		verdict, ok := comments.Evaluate(comment, c.Criteria)
		if !ok {
			c.Report.Add(Entry{Identifier: identifier, Username: comment.Username, Outcome: OutcomeSkipped})
			continue
		}

		if !verdict.Accepted {
			log.WithField("reasons", verdict.Reasons).Info("rejected comment")
			c.Report.Add(Entry{
				Identifier: identifier,
				Username:   comment.Username,
				Outcome:    OutcomeRejected,
				Reasons:    verdict.Reasons,
			})
			continue
		}

		// Every accepted comment uses up quota, whether or not it renders.
		state.TotalAccepted++

		path, err := c.Accept(ctx, identifier, comment)
		if err != nil {
			var renderErr *render.RenderError
			if c.FailFast || ctx.Err() != nil || !errors.As(err, &renderErr) {
				return err
			}

			log.WithError(err).Error("could not render comment, continuing")
			c.Report.Add(Entry{
				Identifier: identifier,
				Username:   comment.Username,
				Outcome:    OutcomeFailed,
				Err:        err,
			})
		} else {
			log.WithField("path", path).Info("accepted comment")
			c.Report.Add(Entry{
				Identifier: identifier,
				Username:   comment.Username,
				Outcome:    OutcomeAccepted,
				Path:       path,
			})
		}

		if c.quotaReached(state) {
			return nil
		}
	}

	return nil
}
