// Package tiling splits page rasters into overlapping sub-images sized
// for reliable text legibility. Brand text that straddles a tile edge is
// fully contained in at least one neighbor thanks to the overlap margin.
package tiling

import (
	"image"
	"image/draw"
)

// Tile is an overlapping sub-rectangle of a page image. Offsets are in
// full-page pixel coordinates so detections inside the tile can be mapped
// back into page space.
type Tile struct {
	Image   image.Image
	OffsetX int
	OffsetY int
	Index   int
}

// Options controls the grid geometry.
type Options struct {
	// TileSize is the nominal width and height of each tile in pixels.
	TileSize int
	// Overlap is the margin shared by adjacent tiles on interior edges.
	Overlap int
	// MinSize is the smallest useful tile dimension. A trailing row or
	// column thinner than this is folded into its neighbor instead of
	// producing a sliver tile.
	MinSize int
}

type span struct {
	off    int
	length int
}

// Split cuts img into a row-major grid of overlapping tiles. The same
// image and options always yield the same tiles in the same order.
// Images no larger than one tile come back as a single full-image tile;
// zero-area images yield no tiles.
func Split(img image.Image, opts Options) []Tile {
	if img == nil {
		return nil
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil
	}

	cols := axisSpans(w, opts.TileSize, opts.Overlap, opts.MinSize)
	rows := axisSpans(h, opts.TileSize, opts.Overlap, opts.MinSize)

	tiles := make([]Tile, 0, len(cols)*len(rows))
	idx := 0
	for _, r := range rows {
		for _, c := range cols {
			rect := image.Rect(
				bounds.Min.X+c.off,
				bounds.Min.Y+r.off,
				bounds.Min.X+c.off+c.length,
				bounds.Min.Y+r.off+r.length,
			)
			tiles = append(tiles, Tile{
				Image:   crop(img, rect),
				OffsetX: c.off,
				OffsetY: r.off,
				Index:   idx,
			})
			idx++
		}
	}
	return tiles
}

// axisSpans computes tile offsets and lengths along one axis. Interior
// neighbors overlap by exactly `overlap` pixels; a final span shorter than
// minSize is folded into the previous span, which is widened to the image
// edge if needed so every pixel stays covered.
func axisSpans(length, tileSize, overlap, minSize int) []span {
	if length <= 0 {
		return nil
	}
	if tileSize <= 0 || length <= tileSize {
		return []span{{0, length}}
	}
	step := tileSize - overlap
	if step <= 0 {
		return []span{{0, length}}
	}

	var spans []span
	for off := 0; ; off += step {
		remain := length - off
		if remain < minSize && len(spans) > 0 {
			last := &spans[len(spans)-1]
			if last.off+last.length < length {
				last.length = length - last.off
			}
			break
		}
		size := tileSize
		if remain < size {
			size = remain
		}
		spans = append(spans, span{off, size})
		if off+size >= length {
			break
		}
	}
	return spans
}

// crop extracts rect from img, using SubImage when the concrete type
// supports it and copying otherwise.
func crop(img image.Image, rect image.Rectangle) image.Image {
	type subImager interface {
		SubImage(r image.Rectangle) image.Image
	}
	if si, ok := img.(subImager); ok {
		return si.SubImage(rect)
	}
	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), img, rect.Min, draw.Src)
	return dst
}
