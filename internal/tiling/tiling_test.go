package tiling

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultOpts() Options {
	return Options{TileSize: 1024, Overlap: 200, MinSize: 200}
}

func TestSplitSmallImageSingleTile(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 800, 600))
	tiles := Split(img, defaultOpts())

	require.Len(t, tiles, 1)
	assert.Equal(t, 0, tiles[0].OffsetX)
	assert.Equal(t, 0, tiles[0].OffsetY)
	assert.Equal(t, 800, tiles[0].Image.Bounds().Dx())
	assert.Equal(t, 600, tiles[0].Image.Bounds().Dy())
}

func TestSplitZeroAreaImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 0, 0))
	assert.Empty(t, Split(img, defaultOpts()))
	assert.Empty(t, Split(nil, defaultOpts()))
}

func TestSplitRowMajorDeterministic(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2000, 1500))
	first := Split(img, defaultOpts())
	second := Split(img, defaultOpts())

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].OffsetX, second[i].OffsetX)
		assert.Equal(t, first[i].OffsetY, second[i].OffsetY)
		assert.Equal(t, i, first[i].Index)
	}

	// Row-major: offsets within the first row increase in X at constant Y.
	assert.Equal(t, 0, first[0].OffsetY)
	assert.Less(t, first[0].OffsetX, first[1].OffsetX)
	assert.Equal(t, first[0].OffsetY, first[1].OffsetY)
}

func TestSplitFullCoverage(t *testing.T) {
	sizes := []image.Point{
		{X: 2000, Y: 1500},
		{X: 1900, Y: 1025},
		{X: 1700, Y: 2100},
		{X: 1024, Y: 1024},
		{X: 1025, Y: 1025},
		{X: 3333, Y: 2777},
	}

	for _, size := range sizes {
		img := image.NewGray(image.Rect(0, 0, size.X, size.Y))
		tiles := Split(img, defaultOpts())
		require.NotEmpty(t, tiles)

		covered := make([][]bool, size.Y)
		for y := range covered {
			covered[y] = make([]bool, size.X)
		}
		for _, tile := range tiles {
			b := tile.Image.Bounds()
			assert.Equal(t, tile.OffsetX, b.Min.X, "offset must match sub-image origin")
			assert.Equal(t, tile.OffsetY, b.Min.Y)
			for y := b.Min.Y; y < b.Max.Y; y++ {
				for x := b.Min.X; x < b.Max.X; x++ {
					covered[y][x] = true
				}
			}
		}
		for y := range covered {
			for x := range covered[y] {
				require.True(t, covered[y][x], "pixel (%d,%d) of %v uncovered", x, y, size)
			}
		}
	}
}

func TestSplitInteriorOverlapExact(t *testing.T) {
	opts := defaultOpts()
	img := image.NewGray(image.Rect(0, 0, 3000, 1024))
	tiles := Split(img, opts)
	require.Greater(t, len(tiles), 1)

	// Single row: consecutive tiles share exactly Overlap pixels except
	// where the trailing tile is clamped to the image edge.
	for i := 1; i < len(tiles); i++ {
		prev, cur := tiles[i-1], tiles[i]
		prevRight := prev.Image.Bounds().Max.X
		overlap := prevRight - cur.OffsetX
		assert.LessOrEqual(t, overlap, opts.Overlap)
		if cur.Image.Bounds().Max.X < 3000 || cur.Image.Bounds().Dx() == opts.TileSize {
			assert.Equal(t, opts.Overlap, overlap)
		}
	}
}

func TestSplitGridArithmetic(t *testing.T) {
	opts := defaultOpts()
	// step = 824; width 2000 needs columns at 0, 824, 1648 -> 3 columns,
	// height 1500 needs rows at 0, 824 -> 2 rows.
	img := image.NewGray(image.Rect(0, 0, 2000, 1500))
	tiles := Split(img, opts)
	assert.Len(t, tiles, 6)
}

func TestSplitFoldsSliverIntoNeighbor(t *testing.T) {
	opts := defaultOpts()
	// step = 824; at x=1648 only 52 px remain, below MinSize, so the
	// grid degrades to two columns instead of keeping a sliver tile.
	img := image.NewGray(image.Rect(0, 0, 1700, 1024))
	tiles := Split(img, opts)
	require.Len(t, tiles, 2)
	assert.Equal(t, 824, tiles[1].OffsetX)
}

func TestSplitNonSubImagerSource(t *testing.T) {
	img := image.NewUniform(image.White)
	// Uniform has no SubImage; exercise the copying path with explicit
	// bounds via a wrapper.
	wrapped := boundedImage{Image: img, rect: image.Rect(0, 0, 1200, 500)}
	tiles := Split(wrapped, defaultOpts())
	require.Len(t, tiles, 2)
	assert.Equal(t, 1024, tiles[0].Image.Bounds().Dx())
}

type boundedImage struct {
	image.Image
	rect image.Rectangle
}

func (b boundedImage) Bounds() image.Rectangle { return b.rect }
