package xform

import (
	"errors"
	"fmt"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"github.com/tdewolff/canvas/renderers/svg"
)

// MaxPreviewPixels caps the long side of a rasterized preview
const MaxPreviewPixels = 4096

// ErrPreviewBounds is returned when the diagram extent is not finite
var ErrPreviewBounds = errors.New("preview bounds are not finite")

// PreviewRenderer draws a diagram of a transform: the source rectangle, where
// it lands after transformation, and how sample points move.
type PreviewRenderer struct {
	Builder          *TransformBuilder
	Points           []Point
	Padding          float64           // Padding in source units
	Resolution       canvas.Resolution // Resolution for PNG output
	SourceColor      color.RGBA
	TransformedColor color.RGBA
	PointColor       color.RGBA
}

// canvasRenderer is an interface that both svg and rasterizer renderers implement
type canvasRenderer interface {
	RenderPath(path *canvas.Path, style canvas.Style, m canvas.Matrix)
}

// NewPreviewRenderer creates a preview renderer with default settings
func NewPreviewRenderer(b *TransformBuilder, points []Point) *PreviewRenderer {
	return &PreviewRenderer{
		Builder:          b,
		Points:           points,
		Padding:          DefaultPreviewPadding,
		Resolution:       canvas.DPI(DefaultPreviewResolution),
		SourceColor:      color.RGBA{128, 128, 128, 255},
		TransformedColor: color.RGBA{0, 0, 139, 255},
		PointColor:       color.RGBA{220, 20, 60, 255},
	}
}

// ApplyConfig copies preview settings from config
func (r *PreviewRenderer) ApplyConfig(pc PreviewConfig) {
	if pc.Padding > 0 {
		r.Padding = pc.Padding
	}
	if pc.Resolution > 0 {
		r.Resolution = canvas.DPI(pc.Resolution)
	}
}

// Bounds returns the region the diagram covers before padding
func (r *PreviewRenderer) Bounds() Rectangle {
	m := r.Builder.Matrix()
	rect := r.Builder.Rectangle()

	bound := rect.ToOrbBound().Union(TransformedBounds(rect, m).ToOrbBound())
	for _, p := range r.Points {
		bound = bound.Extend(p.ToOrb())
		bound = bound.Extend(TransformPoint(p, m).ToOrb())
	}
	return RectangleFromBound(bound)
}

// Validate reports whether the diagram can be drawn
func (r *PreviewRenderer) Validate() error {
	b := r.Bounds()
	for _, v := range []float64{b.X, b.Y, b.Width, b.Height, r.Padding} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %v", ErrPreviewBounds, b)
		}
	}
	return nil
}

// rasterResolution lowers the configured resolution so neither side of the
// image exceeds MaxPreviewPixels
func (r *PreviewRenderer) rasterResolution(width, height float64) canvas.Resolution {
	long := math.Max(width, height)
	if long*r.Resolution.DPMM() <= MaxPreviewPixels {
		return r.Resolution
	}
	return canvas.DPMM(MaxPreviewPixels / long)
}

func (r *PreviewRenderer) size() (Rectangle, float64, float64) {
	bounds := r.Bounds()
	width := math.Max(bounds.Width, 1) + 2*r.Padding
	height := math.Max(bounds.Height, 1) + 2*r.Padding
	return bounds, width, height
}

// RenderToSVG writes the diagram as an SVG to the provided writer
func (r *PreviewRenderer) RenderToSVG(w io.Writer) error {
	if err := r.Validate(); err != nil {
		return err
	}
	bounds, width, height := r.size()

	svgRenderer := svg.New(w, width, height, nil)
	r.renderToCanvas(svgRenderer, bounds, width, height)

	return svgRenderer.Close()
}

// RenderToPNG writes the diagram as a PNG to the provided writer.
// Large diagrams are downscaled to fit MaxPreviewPixels.
func (r *PreviewRenderer) RenderToPNG(w io.Writer) error {
	if err := r.Validate(); err != nil {
		return err
	}
	bounds, width, height := r.size()

	rast := rasterizer.New(width, height, r.rasterResolution(width, height), canvas.DefaultColorSpace)
	r.renderToCanvas(rast, bounds, width, height)

	return png.Encode(w, rast)
}

func (r *PreviewRenderer) renderToCanvas(renderer canvasRenderer, bounds Rectangle, width, height float64) {
	bgStyle := canvas.DefaultStyle
	bgStyle.Fill = canvas.Paint{Color: canvas.White}
	renderer.RenderPath(canvas.Rectangle(width, height), bgStyle, canvas.Identity)

	view := canvas.Identity.Translate(r.Padding-bounds.X, r.Padding-bounds.Y)
	m := r.Builder.Matrix()
	rect := r.Builder.Rectangle()
	lineWidth := math.Max(math.Max(bounds.Width, bounds.Height)/200, 0.5)

	outline := canvas.Rectangle(rect.Width, rect.Height).Translate(rect.X, rect.Y)

	sourceStyle := canvas.DefaultStyle
	sourceStyle.Fill = canvas.Paint{Color: canvas.Transparent}
	sourceStyle.Stroke = canvas.Paint{Color: r.SourceColor}
	sourceStyle.StrokeWidth = lineWidth
	sourceStyle.Dashes = []float64{4 * lineWidth, 4 * lineWidth}
	renderer.RenderPath(outline, sourceStyle, view)

	transformedStyle := canvas.DefaultStyle
	transformedStyle.Fill = canvas.Paint{Color: color.RGBA{
		R: r.TransformedColor.R / 4, G: r.TransformedColor.G / 4, B: r.TransformedColor.B / 4, A: 64,
	}}
	transformedStyle.Stroke = canvas.Paint{Color: r.TransformedColor}
	transformedStyle.StrokeWidth = lineWidth
	renderer.RenderPath(outline.Copy().Transform(m.CanvasMatrix()), transformedStyle, view)

	// rotation center
	center := rect.Center()
	centerStyle := canvas.DefaultStyle
	centerStyle.Fill = canvas.Paint{Color: r.SourceColor}
	renderer.RenderPath(canvas.Circle(2*lineWidth).Translate(center.X, center.Y), centerStyle, view)

	moveStyle := canvas.DefaultStyle
	moveStyle.Fill = canvas.Paint{Color: canvas.Transparent}
	moveStyle.Stroke = canvas.Paint{Color: r.PointColor}
	moveStyle.StrokeWidth = lineWidth / 2

	pointStyle := canvas.DefaultStyle
	pointStyle.Fill = canvas.Paint{Color: r.PointColor}

	for _, p := range r.Points {
		tp := TransformPoint(p, m)

		move := &canvas.Path{}
		move.MoveTo(p.X, p.Y)
		move.LineTo(tp.X, tp.Y)
		renderer.RenderPath(move, moveStyle, view)

		renderer.RenderPath(canvas.Circle(1.5*lineWidth).Translate(p.X, p.Y), sourceStyle, view)
		renderer.RenderPath(canvas.Circle(2*lineWidth).Translate(tp.X, tp.Y), pointStyle, view)
	}
}
