package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/gen2brain/go-fitz"
)

// Converter renders pages of a single PDF to images at a fixed DPI. The
// underlying MuPDF document is not goroutine-safe, so rendering is
// serialized with a mutex; pages can still be processed concurrently
// downstream of the render.
type Converter struct {
	mu  sync.Mutex
	doc *fitz.Document
	dpi float64
}

// NewConverter opens an in-memory PDF for rendering. The caller owns the
// returned Converter and must Close it.
func NewConverter(data []byte, dpi int) (*Converter, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("opening PDF for rendering: %w", err)
	}
	return &Converter{doc: doc, dpi: float64(dpi)}, nil
}

// PageCount reports the number of pages in the open document.
func (c *Converter) PageCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doc.NumPage()
}

// RenderPage rasterizes one page. Pages are numbered from 1.
func (c *Converter) RenderPage(pageNumber int) (image.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if pageNumber < 1 || pageNumber > c.doc.NumPage() {
		return nil, fmt.Errorf("page %d out of range 1..%d", pageNumber, c.doc.NumPage())
	}
	img, err := c.doc.ImageDPI(pageNumber-1, c.dpi)
	if err != nil {
		return nil, fmt.Errorf("rendering page %d: %w", pageNumber, err)
	}
	return img, nil
}

// Close releases the underlying document.
func (c *Converter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.doc == nil {
		return nil
	}
	err := c.doc.Close()
	c.doc = nil
	return err
}

// EncodePNG serializes an image to PNG bytes for model consumption.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding page image: %w", err)
	}
	return buf.Bytes(), nil
}
