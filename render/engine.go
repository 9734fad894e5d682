package render

import "context"

// Box is a rectangle in CSS pixels relative to the document origin.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Engine loads HTML documents for screenshotting.
type Engine interface {
	Open(ctx context.Context, document string) (Page, error)
}

// Page is a document loaded by an Engine. It must be closed after use.
type Page interface {
	// BoundingBox returns the box of the first element matching selector.
	BoundingBox(ctx context.Context, selector string) (Box, error)

	// Screenshot returns a PNG of the page clipped to the box.
	Screenshot(ctx context.Context, clip Box) ([]byte, error)

	Close() error
}
