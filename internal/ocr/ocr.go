// Package ocr wraps an image-to-text engine behind a uniform
// "tile in, recognized text with page coordinates out" contract.
package ocr

import (
	"context"
	"image"
)

// Point is a pixel coordinate in full-page space.
type Point struct {
	X int
	Y int
}

// TextDetection is one recognized text fragment. The box is a
// quadrilateral in full-page coordinates after tile-offset correction,
// listed clockwise from the top-left corner.
type TextDetection struct {
	Text       string
	Box        [4]Point
	Confidence float64
	TileX      int
	TileY      int
}

// Engine recognizes text in a single image. Coordinates in the returned
// detections are local to the image passed in.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, img image.Image, languages []string) ([]TextDetection, error)
}
