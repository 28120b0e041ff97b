package xform

import "fmt"

// Point represents a 2D coordinate. It doubles as a 2D vector.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Add returns p + q
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p - q
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Negate returns -p
func (p Point) Negate() Point {
	return Point{X: -p.X, Y: -p.Y}
}

func (p Point) String() string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}

// Size is the extent of a rectangle
type Size struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Rectangle is an axis-aligned region given by its origin and extent.
type Rectangle struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// RectangleFromSize returns a rectangle of the given size rooted at the origin
func RectangleFromSize(s Size) Rectangle {
	return Rectangle{Width: s.Width, Height: s.Height}
}

// Location returns the rectangle origin
func (r Rectangle) Location() Point {
	return Point{X: r.X, Y: r.Y}
}

// Size returns the rectangle extent
func (r Rectangle) Size() Size {
	return Size{Width: r.Width, Height: r.Height}
}

// Center returns the geometric center in the rectangle's own coordinates
func (r Rectangle) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// LocalCenter returns the center relative to the rectangle origin
func (r Rectangle) LocalCenter() Point {
	return Point{X: r.Width / 2, Y: r.Height / 2}
}

// Corners returns the corners in top-left, top-right, bottom-right, bottom-left order
func (r Rectangle) Corners() [4]Point {
	return [4]Point{
		{X: r.X, Y: r.Y},
		{X: r.X + r.Width, Y: r.Y},
		{X: r.X + r.Width, Y: r.Y + r.Height},
		{X: r.X, Y: r.Y + r.Height},
	}
}

func (r Rectangle) String() string {
	return fmt.Sprintf("[%g,%g %gx%g]", r.X, r.Y, r.Width, r.Height)
}

// AffineMatrix for 2D transforms: x' = ax + by + tx, y' = cx + dy + ty
type AffineMatrix struct {
	A  float64 `json:"a" yaml:"a"`
	B  float64 `json:"b" yaml:"b"`
	Tx float64 `json:"tx" yaml:"tx"`
	C  float64 `json:"c" yaml:"c"`
	D  float64 `json:"d" yaml:"d"`
	Ty float64 `json:"ty" yaml:"ty"`
}

// Identity returns an identity matrix (no transformation)
func Identity() AffineMatrix {
	return AffineMatrix{A: 1, B: 0, Tx: 0, C: 0, D: 1, Ty: 0}
}

func (m AffineMatrix) String() string {
	return fmt.Sprintf("[%g %g %g; %g %g %g]", m.A, m.B, m.Tx, m.C, m.D, m.Ty)
}

// PreviewConfig controls the preview renderer
type PreviewConfig struct {
	Resolution float64 `yaml:"resolution,omitempty" json:"resolution,omitempty"` // PNG DPI (default 96)
	Padding    float64 `yaml:"padding,omitempty" json:"padding,omitempty"`       // Padding in source units (default 20)
}

// HTTPConfig holds HTTP server settings
type HTTPConfig struct {
	Port int `yaml:"port,omitempty" json:"port,omitempty"`
}

// MQTTConfig holds MQTT connection settings
type MQTTConfig struct {
	Broker        string `yaml:"broker" json:"broker"`
	RequestTopic  string `yaml:"requestTopic,omitempty" json:"requestTopic,omitempty"`
	PublishPrefix string `yaml:"publishPrefix,omitempty" json:"publishPrefix,omitempty"`
	ClientID      string `yaml:"clientId,omitempty" json:"clientId,omitempty"`
	Username      string `yaml:"username,omitempty" json:"username,omitempty"`
	Password      string `yaml:"password,omitempty" json:"password,omitempty"`
}

// Config represents the full configuration file
type Config struct {
	MQTT      MQTTConfig    `yaml:"mqtt" json:"mqtt"`
	HTTP      HTTPConfig    `yaml:"http,omitempty" json:"http,omitempty"`
	Preview   PreviewConfig `yaml:"preview,omitempty" json:"preview,omitempty"`
	Pipelines []Pipeline    `yaml:"pipelines" json:"pipelines"`
}

// GetPipeline returns the named pipeline or nil
func (c *Config) GetPipeline(name string) *Pipeline {
	if c == nil {
		return nil
	}
	for i := range c.Pipelines {
		if c.Pipelines[i].Name == name {
			return &c.Pipelines[i]
		}
	}
	return nil
}

// PipelineNames lists configured pipeline names in file order
func (c *Config) PipelineNames() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.Pipelines))
	for _, p := range c.Pipelines {
		names = append(names, p.Name)
	}
	return names
}
