// Package render turns comments into cropped PNG images styled like the
// platform's comment UI.
package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"comment-shots/comments"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultOutputDir is where images are written unless configured otherwise.
const DefaultOutputDir = "comment-images"

// RenderError is returned when a comment could not be turned into an image.
type RenderError struct {
	Username string
	Err      error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("could not render comment by %q: %v", e.Username, e.Err)
}

func (e *RenderError) Cause() error  { return e.Err }
func (e *RenderError) Unwrap() error { return e.Err }

// Renderer renders one comment at a time through an Engine.
type Renderer struct {
	engine    Engine
	outputDir string

	// Now returns the reference time for relative date labels.
	Now func() time.Time

	// Timeout bounds a single render, zero means no limit.
	Timeout time.Duration

	// written maps paths produced by this renderer to their usernames.
	written map[string]string
}

// NewRenderer returns a renderer writing into outputDir.
func NewRenderer(engine Engine, outputDir string) *Renderer {
	if outputDir == "" {
		outputDir = DefaultOutputDir
	}

	return &Renderer{
		engine:    engine,
		outputDir: outputDir,
		Now:       time.Now,
		written:   make(map[string]string),
	}
}

// OutputDir is the directory images are written to.
func (r *Renderer) OutputDir() string {
	return r.outputDir
}

// Render writes the comment image and returns its path. An existing file
// with the same name is overwritten.
func (r *Renderer) Render(ctx context.Context, comment *comments.Comment, theme comments.Theme) (string, error) {
	path, err := r.render(ctx, comment, theme)
	if err != nil {
		return "", &RenderError{Username: comment.Username, Err: err}
	}

	return path, nil
}

func (r *Renderer) render(ctx context.Context, comment *comments.Comment, theme comments.Theme) (string, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	date, ok := RelativeDate(comment.DatePosted, r.Now())
	if !ok {
		logrus.WithFields(logrus.Fields{
			"username":   comment.Username,
			"datePosted": comment.DatePosted,
		}).Warn("could not parse comment date, using placeholder")
	}

	document, err := Document(comment, theme, date)
	if err != nil {
		return "", err
	}

	page, err := r.engine.Open(ctx, document)
	if err != nil {
		return "", errors.Wrap(err, "could not open the document")
	}
	defer func() {
		if err := page.Close(); err != nil {
			logrus.WithError(err).Warn("could not close the page")
		}
	}()

	box, err := page.BoundingBox(ctx, Selector)
	if err != nil {
		return "", errors.Wrap(err, "could not locate the comment container")
	}

	image, err := page.Screenshot(ctx, box)
	if err != nil {
		return "", errors.Wrap(err, "could not screenshot the comment container")
	}

	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return "", errors.Wrap(err, "could not create the output directory")
	}

	path := filepath.Join(r.outputDir, FileName(comment.Username))
	if previous, ok := r.written[path]; ok {
		logrus.WithFields(logrus.Fields{
			"path":     path,
			"previous": previous,
			"username": comment.Username,
		}).Warn("overwriting an image written earlier in this run")
	}

	if err := os.WriteFile(path, image, 0o644); err != nil {
		return "", errors.Wrap(err, "could not write the image")
	}
	r.written[path] = comment.Username

	logrus.WithFields(logrus.Fields{
		"username": comment.Username,
		"path":     path,
		"width":    box.Width,
		"height":   box.Height,
	}).Debug("rendered comment")

	return path, nil
}
