package xform

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRequestID is returned for ids that cannot be used as an MQTT topic level
var ErrInvalidRequestID = errors.New("invalid request id")

// TransformRequest asks for a transform to be built and points mapped through it.
// Either Pipeline names a configured pipeline or Rectangle is given inline.
// Operations are composed after those of the named pipeline.
type TransformRequest struct {
	ID         string      `json:"id"`
	Pipeline   string      `json:"pipeline,omitempty"`
	Rectangle  *Rectangle  `json:"rectangle,omitempty"`
	Operations []Operation `json:"operations,omitempty"`
	Points     []Point     `json:"points,omitempty"`
}

// TransformResponse carries the built matrix and mapped points
type TransformResponse struct {
	ID         string       `json:"id"`
	Rectangle  Rectangle    `json:"rectangle"`
	Matrix     AffineMatrix `json:"matrix"`
	Rotation   float64      `json:"rotation"`
	Degenerate bool         `json:"degenerate,omitempty"`
	Bounds     Rectangle    `json:"bounds"`
	Points     []Point      `json:"points"`
	Error      string       `json:"error,omitempty"`
}

// ErrorResponse builds a response that reports err for request id
func ErrorResponse(id string, err error) *TransformResponse {
	return &TransformResponse{ID: id, Points: []Point{}, Error: err.Error()}
}

// DecodeRequest parses a JSON transform request
func DecodeRequest(payload []byte) (*TransformRequest, error) {
	var req TransformRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("decoding transform request: %w", err)
	}
	if err := ValidateRequestID(req.ID); err != nil {
		return nil, err
	}
	return &req, nil
}

// ValidateRequestID rejects ids containing topic separators, MQTT wildcards or NUL
func ValidateRequestID(id string) error {
	if strings.ContainsAny(id, "/+#\x00") {
		return fmt.Errorf("%w %q: must not contain '/', '+', '#' or NUL", ErrInvalidRequestID, id)
	}
	return nil
}

// ResolveRequestPipeline merges the named pipeline (if any) with the inline
// rectangle and operations of req.
func ResolveRequestPipeline(config *Config, req *TransformRequest) (*Pipeline, error) {
	var p Pipeline
	if req.Pipeline != "" {
		named, err := ResolvePipeline(config, req.Pipeline)
		if err != nil {
			return nil, err
		}
		p.Name = named.Name
		p.Rectangle = named.Rectangle
		p.Operations = append(p.Operations, named.Operations...)
	} else if req.Rectangle == nil {
		return nil, errors.New("request needs a pipeline name or a rectangle")
	}

	if req.Rectangle != nil {
		p.Rectangle = *req.Rectangle
	}
	p.Operations = append(p.Operations, req.Operations...)
	return &p, nil
}

// ProcessRequest builds the requested transform and maps the request points
func ProcessRequest(config *Config, req *TransformRequest) (*TransformResponse, error) {
	p, err := ResolveRequestPipeline(config, req)
	if err != nil {
		return nil, err
	}

	b, err := p.Builder()
	if err != nil {
		return nil, err
	}

	m := b.Matrix()
	points := TransformPoints(req.Points, m)

	return &TransformResponse{
		ID:         req.ID,
		Rectangle:  b.Rectangle(),
		Matrix:     m,
		Rotation:   m.RotationAngle(),
		Degenerate: m.IsDegenerate(),
		Bounds:     b.TransformedBounds(),
		Points:     points,
	}, nil
}
