package xform

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Operation modes
const (
	ModeAppend  = "append"
	ModePrepend = "prepend"
)

// Operation kinds
const (
	KindTranslate = "translate"
	KindScale     = "scale"
	KindRotate    = "rotate"
	KindSkew      = "skew"
	KindMatrix    = "matrix"
)

// Angle units
const (
	UnitsDegrees = "degrees"
	UnitsRadians = "radians"
)

// Operation is one declarative builder step.
//
//	translate: x, y (missing component is 0)
//	scale:     x, y (y defaults to x)
//	rotate:    angle, optional center
//	skew:      x, y angles, optional center
//	matrix:    matrix
//
// Angles are in degrees unless units is "radians". Rotation and skew pivot on
// the rectangle-local center unless center is given.
type Operation struct {
	Mode   string        `yaml:"mode,omitempty" json:"mode,omitempty"` // append (default) or prepend
	Kind   string        `yaml:"kind" json:"kind"`
	X      *float64      `yaml:"x,omitempty" json:"x,omitempty"`
	Y      *float64      `yaml:"y,omitempty" json:"y,omitempty"`
	Angle  *float64      `yaml:"angle,omitempty" json:"angle,omitempty"`
	Units  string        `yaml:"units,omitempty" json:"units,omitempty"`
	Matrix *AffineMatrix `yaml:"matrix,omitempty" json:"matrix,omitempty"`
	Center *Point        `yaml:"center,omitempty" json:"center,omitempty"`
}

// Pipeline is a named rectangle plus the operations to compose for it
type Pipeline struct {
	Name       string      `yaml:"name,omitempty" json:"name,omitempty"`
	Rectangle  Rectangle   `yaml:"rectangle" json:"rectangle"`
	Operations []Operation `yaml:"operations" json:"operations"`
}

func valueOr(v *float64, def float64) float64 {
	if v != nil {
		return *v
	}
	return def
}

func (op Operation) prepend() bool {
	return op.Mode == ModePrepend
}

func (op Operation) toRadians(v float64) float64 {
	if op.Units == UnitsRadians {
		return v
	}
	return DegreesToRadians(v)
}

// Validate checks that the operation has a known mode and kind and carries the parameters it needs
func (op Operation) Validate() error {
	switch op.Mode {
	case "", ModeAppend, ModePrepend:
	default:
		return fmt.Errorf("unknown mode %q", op.Mode)
	}
	switch op.Units {
	case "", UnitsDegrees, UnitsRadians:
	default:
		return fmt.Errorf("unknown units %q", op.Units)
	}

	switch op.Kind {
	case KindTranslate:
		if op.X == nil && op.Y == nil {
			return fmt.Errorf("translate requires x or y")
		}
	case KindScale:
		if op.X == nil {
			return fmt.Errorf("scale requires x")
		}
	case KindRotate:
		if op.Angle == nil {
			return fmt.Errorf("rotate requires angle")
		}
	case KindSkew:
		if op.X == nil && op.Y == nil {
			return fmt.Errorf("skew requires x or y")
		}
	case KindMatrix:
		if op.Matrix == nil {
			return fmt.Errorf("matrix operation requires matrix")
		}
	case "":
		return fmt.Errorf("kind is required")
	default:
		return fmt.Errorf("unknown kind %q", op.Kind)
	}
	if op.Center != nil && op.Kind != KindRotate && op.Kind != KindSkew {
		return fmt.Errorf("center is only valid for rotate and skew")
	}
	return nil
}

// ApplyTo composes the operation onto b. The operation must be valid.
func (op Operation) ApplyTo(b *TransformBuilder) {
	if op.Center != nil {
		op.applyAbout(b, *op.Center)
		return
	}

	var m AffineMatrix
	switch op.Kind {
	case KindTranslate:
		m = Translation(valueOr(op.X, 0), valueOr(op.Y, 0))
	case KindScale:
		sx := valueOr(op.X, 1)
		m = Scale(sx, valueOr(op.Y, sx))
	case KindRotate:
		m = CreateRotationMatrix(op.toRadians(*op.Angle), b.Rectangle().Size())
	case KindSkew:
		m = CreateSkewMatrix(op.toRadians(valueOr(op.X, 0)), op.toRadians(valueOr(op.Y, 0)), b.Rectangle().Size())
	case KindMatrix:
		m = *op.Matrix
	default:
		return
	}

	if op.prepend() {
		b.PrependMatrix(m)
	} else {
		b.AppendMatrix(m)
	}
}

func (op Operation) applyAbout(b *TransformBuilder, center Point) {
	switch op.Kind {
	case KindRotate:
		radians := op.toRadians(*op.Angle)
		if op.prepend() {
			b.PrependRotationRadiansAbout(radians, center)
		} else {
			b.AppendRotationRadiansAbout(radians, center)
		}
	case KindSkew:
		ax, ay := op.toRadians(valueOr(op.X, 0)), op.toRadians(valueOr(op.Y, 0))
		if op.prepend() {
			b.PrependSkewRadiansAbout(ax, ay, center)
		} else {
			b.AppendSkewRadiansAbout(ax, ay, center)
		}
	}
}

// Validate checks the rectangle and every operation
func (p *Pipeline) Validate() error {
	if p.Rectangle.Width < 0 || p.Rectangle.Height < 0 {
		return fmt.Errorf("rectangle %s has negative extent", p.Rectangle)
	}
	for i, op := range p.Operations {
		if err := op.Validate(); err != nil {
			return fmt.Errorf("operations[%d]: %w", i, err)
		}
	}
	return nil
}

// ApplyTo validates the pipeline and replays its operations onto b in order
func (p *Pipeline) ApplyTo(b *TransformBuilder) error {
	if err := p.Validate(); err != nil {
		return err
	}
	for _, op := range p.Operations {
		op.ApplyTo(b)
	}
	return nil
}

// Builder creates a builder for the pipeline rectangle with all operations applied
func (p *Pipeline) Builder() (*TransformBuilder, error) {
	b := NewBuilderForRectangle(p.Rectangle)
	if err := p.ApplyTo(b); err != nil {
		return nil, err
	}
	return b, nil
}

// ParsePipeline decodes a pipeline from YAML (or JSON, which YAML accepts)
func ParsePipeline(data []byte) (*Pipeline, error) {
	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing pipeline YAML: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadPipeline loads a pipeline from a YAML file
func LoadPipeline(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("pipeline file not found: %s", path)
		}
		return nil, fmt.Errorf("reading pipeline file: %w", err)
	}
	return ParsePipeline(data)
}

// SavePipeline saves a pipeline to a YAML file
func SavePipeline(path string, p *Pipeline) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshaling pipeline YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing pipeline file: %w", err)
	}

	return nil
}

// Float returns a pointer to v, for building operations in code
func Float(v float64) *float64 {
	return &v
}
