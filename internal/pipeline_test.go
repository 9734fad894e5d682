package internal

import (
	"context"
	"fmt"
	"os"
	"testing"

	"comment-shots/comments"
	"comment-shots/render"

	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	opened int
}

func (e *fakeEngine) Open(_ context.Context, _ string) (render.Page, error) {
	e.opened++
	return fakePage{}, nil
}

type fakePage struct{}

func (fakePage) BoundingBox(context.Context, string) (render.Box, error) {
	return render.Box{Width: render.Width, Height: 100}, nil
}

func (fakePage) Screenshot(context.Context, render.Box) ([]byte, error) {
	return []byte("\x89PNG"), nil
}

func (fakePage) Close() error { return nil }

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0
	}
	require.NoError(t, err)
	return len(entries)
}

func TestPipelineRun(t *testing.T) {
	dir := t.TempDir()
	engine := &fakeEngine{}

	p := &Pipeline{
		Source: &fakeSource{pages: map[string][][]comments.Comment{
			"v1": {{
				{Username: "dog", Content: "dogs only"},
				{Username: "Cat Fan", Content: "my cat"},
				{Username: "cat-2", Content: "another cat"},
			}},
		}},
		Renderer: render.NewRenderer(engine, dir),
		Criteria: comments.Criteria{SearchTerms: []string{"cat"}, Theme: comments.ThemeDark},
		Quota:    1,
	}

	report, err := p.Run(context.Background(), []string{"v1"})
	require.NoError(t, err)
	require.NotEmpty(t, report.RunID)
	require.Equal(t, 1, report.Accepted)
	require.Equal(t, 1, report.Skipped)
	require.Equal(t, 1, report.Pages)
	require.Equal(t, 1, engine.opened)
	require.Equal(t, 1, countFiles(t, dir))

	_, err = os.Stat(report.Entries[0].Path)
	require.NoError(t, err)
	require.Equal(t, "cat_fan.png", report.Entries[0].Path[len(dir)+1:])
}

func TestPipelineRunKeepsImagesOnSourceError(t *testing.T) {
	dir := t.TempDir()

	p := &Pipeline{
		Source: &fakeSource{
			pages:  map[string][][]comments.Comment{"v1": chunk(matching("a", 4), 2)},
			failAt: &pageRequest{Identifier: "v1", Token: "1"},
		},
		Renderer: render.NewRenderer(&fakeEngine{}, dir),
		Criteria: comments.Criteria{SearchTerms: []string{"cat"}, Theme: comments.ThemeLight},
		Quota:    10,
	}

	report, err := p.Run(context.Background(), []string{"v1"})
	require.Error(t, err)
	require.Equal(t, 2, report.Accepted)
	require.Equal(t, 2, countFiles(t, dir))
}

func TestPipelineRenderCustom(t *testing.T) {
	dir := t.TempDir()
	engine := &fakeEngine{}

	list := make([]comments.Comment, 0, 6)
	for i := 0; i < 6; i++ {
		// None of these would pass any filter.
		list = append(list, comments.Comment{
			Username:   fmt.Sprintf("custom %d", i),
			DatePosted: "garbage",
			Content:    "",
			LikeCount:  -1,
		})
	}

	p := &Pipeline{Renderer: render.NewRenderer(engine, dir)}

	report, err := p.RenderCustom(context.Background(), list, comments.ThemeLight)
	require.NoError(t, err)
	require.Equal(t, 6, report.Accepted)
	require.Equal(t, 6, engine.opened)
	require.Equal(t, 6, countFiles(t, dir))
}
