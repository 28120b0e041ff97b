package xform

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Feature roles written to the "role" property
const (
	RoleSource      = "source"
	RoleTransformed = "transformed"
	RolePoint       = "point"
)

// OutlineFeatureCollection describes a builder as GeoJSON: the source rectangle,
// its transformed outline and every sample point after mapping.
func OutlineFeatureCollection(b *TransformBuilder, points []Point) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	m := b.Matrix()
	rect := b.Rectangle()

	source := geojson.NewFeature(orb.Polygon{rect.Ring()})
	source.Properties["role"] = RoleSource
	source.Properties["width"] = rect.Width
	source.Properties["height"] = rect.Height
	fc.Append(source)

	transformed := geojson.NewFeature(orb.Polygon{TransformedRing(rect, m)})
	transformed.Properties["role"] = RoleTransformed
	transformed.Properties["matrix"] = m
	fc.Append(transformed)

	for i, p := range points {
		f := geojson.NewFeature(TransformPoint(p, m).ToOrb())
		f.Properties["role"] = RolePoint
		f.Properties["index"] = i
		f.Properties["source"] = []float64{p.X, p.Y}
		d := TransformPoint(p, m).Sub(p)
		f.Properties["displacement"] = []float64{d.X, d.Y}
		fc.Append(f)
	}

	return fc
}
