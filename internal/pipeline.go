package internal

import (
	"context"
	"time"

	"comment-shots/comments"
	"comment-shots/render"
	"comment-shots/source"

	"github.com/sirupsen/logrus"
)

// Pipeline fetches, filters and renders comments.
type Pipeline struct {
	Source   source.Source
	Renderer *render.Renderer
	Criteria comments.Criteria

	// Quota is the most comments rendered by Run, zero means unbounded.
	Quota int

	// FailFast aborts on the first render error.
	FailFast bool
}

// Run renders the accepted comments of every identifier until the quota is
// reached. Images written before an error stay on disk.
func (p *Pipeline) Run(ctx context.Context, identifiers []string) (*Report, error) {
	report := NewReport()
	log := logrus.WithField("runID", report.RunID)

	controller := &Controller{
		Source:   p.Source,
		Criteria: &p.Criteria,
		Quota:    p.Quota,
		FailFast: p.FailFast,
		Report:   report,
		Log:      log,
		Accept: func(ctx context.Context, _ string, comment *comments.Comment) (string, error) {
			return p.Renderer.Render(ctx, comment, p.Criteria.Theme)
		},
	}

	started := time.Now()
	log.WithFields(logrus.Fields{
		"identifiers": len(identifiers),
		"quota":       p.Quota,
	}).Info("starting run")

	state, err := controller.Run(ctx, identifiers)

	log.WithFields(logrus.Fields{
		"accepted": state.TotalAccepted,
		"rejected": report.Rejected,
		"skipped":  report.Skipped,
		"failed":   report.Failed,
		"pages":    report.Pages,
		"took":     time.Since(started).String(),
	}).Info("finished run")

	return report, err
}

// RenderCustom renders every supplied comment as is, without fetching or
// filtering.
func (p *Pipeline) RenderCustom(ctx context.Context, list []comments.Comment, theme comments.Theme) (*Report, error) {
	report := NewReport()
	log := logrus.WithField("runID", report.RunID)

	started := time.Now()
	log.WithField("comments", len(list)).Info("rendering custom comments")

	for i := range list {
		comment := &list[i]

		path, err := p.Renderer.Render(ctx, comment, theme)
		if err != nil {
			if p.FailFast || ctx.Err() != nil {
				return report, err
			}

			log.WithError(err).WithField("username", comment.Username).Error("could not render comment, continuing")
			report.Add(Entry{Username: comment.Username, Outcome: OutcomeFailed, Err: err})
			continue
		}

		report.Add(Entry{Username: comment.Username, Outcome: OutcomeAccepted, Path: path})
	}

	log.WithFields(logrus.Fields{
		"rendered": report.Accepted,
		"failed":   report.Failed,
		"took":     time.Since(started).String(),
	}).Info("finished rendering custom comments")

	return report, nil
}
