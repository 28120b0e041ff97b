package xform

import (
	"bytes"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tdewolff/canvas"
)

func previewBuilder() *TransformBuilder {
	return NewBuilderForRectangle(Rectangle{X: 10, Y: 10, Width: 100, Height: 60}).
		AppendRotationDegrees(30).
		AppendScale(1.5, 1)
}

func TestPreviewRenderer_RenderToSVG(t *testing.T) {
	r := NewPreviewRenderer(previewBuilder(), []Point{{X: 20, Y: 20}, {X: 100, Y: 50}})

	var buf bytes.Buffer
	require.NoError(t, r.RenderToSVG(&buf))

	assert.Contains(t, buf.String(), "<svg")
	assert.Contains(t, buf.String(), "path")
}

func TestPreviewRenderer_RenderToPNG(t *testing.T) {
	r := NewPreviewRenderer(previewBuilder(), nil)
	r.ApplyConfig(PreviewConfig{Resolution: 25.4, Padding: 5}) // one pixel per unit

	var buf bytes.Buffer
	require.NoError(t, r.RenderToPNG(&buf))

	img, err := png.Decode(&buf)
	require.NoError(t, err)

	bounds := r.Bounds()
	assert.InDelta(t, bounds.Width+10, float64(img.Bounds().Dx()), 2)
	assert.InDelta(t, bounds.Height+10, float64(img.Bounds().Dy()), 2)
}

func TestPreviewRenderer_Bounds(t *testing.T) {
	b := NewBuilder(Size{Width: 10, Height: 10}).AppendTranslation(Point{X: 20, Y: 0})
	r := NewPreviewRenderer(b, []Point{{X: -5, Y: 5}})

	bounds := r.Bounds()
	assert.Equal(t, Rectangle{X: -5, Y: 0, Width: 35, Height: 10}, bounds)
}

func TestPreviewRenderer_ApplyConfig(t *testing.T) {
	r := NewPreviewRenderer(NewBuilder(Size{Width: 1, Height: 1}), nil)
	r.ApplyConfig(PreviewConfig{})
	assert.Equal(t, DefaultPreviewPadding, r.Padding)
	assert.Equal(t, canvas.DPI(DefaultPreviewResolution), r.Resolution)

	r.ApplyConfig(PreviewConfig{Resolution: 300, Padding: 1})
	assert.Equal(t, 1.0, r.Padding)
	assert.Equal(t, canvas.DPI(300), r.Resolution)
}

func TestPreviewRenderer_RenderToPNG_CapsPixelSize(t *testing.T) {
	tests := []struct {
		name   string
		b      *TransformBuilder
		points []Point
	}{
		{"far point", NewBuilder(Size{Width: 4, Height: 4}).AppendRotationDegrees(90), []Point{{X: 3000, Y: 3000}}},
		{"wide extent", NewBuilder(Size{Width: 4, Height: 4}), []Point{{X: 30000, Y: 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewPreviewRenderer(tt.b, tt.points)
			r.ApplyConfig(PreviewConfig{Resolution: 96})

			var buf bytes.Buffer
			require.NoError(t, r.RenderToPNG(&buf))

			img, err := png.Decode(&buf)
			require.NoError(t, err)
			assert.LessOrEqual(t, img.Bounds().Dx(), MaxPreviewPixels)
			assert.LessOrEqual(t, img.Bounds().Dy(), MaxPreviewPixels)
			assert.Greater(t, img.Bounds().Dx(), MaxPreviewPixels/2)
		})
	}
}

func TestPreviewRenderer_RejectsNonFiniteBounds(t *testing.T) {
	tests := []struct {
		name   string
		b      *TransformBuilder
		points []Point
	}{
		{"NaN point", NewBuilder(Size{Width: 4, Height: 4}), []Point{{X: math.NaN(), Y: 1}}},
		{"infinite point", NewBuilder(Size{Width: 4, Height: 4}), []Point{{X: 1, Y: math.Inf(1)}}},
		{"infinite matrix", NewBuilder(Size{Width: 4, Height: 4}).AppendTranslation(Point{X: math.Inf(-1)}), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewPreviewRenderer(tt.b, tt.points)
			assert.ErrorIs(t, r.Validate(), ErrPreviewBounds)
			assert.ErrorIs(t, r.RenderToSVG(&bytes.Buffer{}), ErrPreviewBounds)
			assert.ErrorIs(t, r.RenderToPNG(&bytes.Buffer{}), ErrPreviewBounds)
		})
	}

	assert.NoError(t, NewPreviewRenderer(previewBuilder(), nil).Validate())
}
