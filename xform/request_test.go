package xform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{
		Pipelines: []Pipeline{
			{
				Name:      "double",
				Rectangle: Rectangle{X: 10, Y: 20, Width: 100, Height: 100},
				Operations: []Operation{
					{Kind: KindScale, X: Float(2)},
				},
			},
		},
	}
}

func TestProcessRequest_NamedPipeline(t *testing.T) {
	resp, err := ProcessRequest(testConfig(), &TransformRequest{
		ID:       "r1",
		Pipeline: "double",
		Points:   []Point{{X: 1, Y: 1}, {X: 10, Y: 20}},
	})
	require.NoError(t, err)

	assert.Equal(t, "r1", resp.ID)
	assert.Equal(t, Rectangle{X: 10, Y: 20, Width: 100, Height: 100}, resp.Rectangle)
	require.Len(t, resp.Points, 2)
	requirePointInDelta(t, Point{X: -18, Y: -38}, resp.Points[0])
	requirePointInDelta(t, Point{X: 0, Y: 0}, resp.Points[1])
	assert.Equal(t, Rectangle{X: 0, Y: 0, Width: 200, Height: 200}, resp.Bounds)
	assert.False(t, resp.Degenerate)
}

func TestProcessRequest_ExtraOperationsAppendAfterPipeline(t *testing.T) {
	resp, err := ProcessRequest(testConfig(), &TransformRequest{
		ID:         "r2",
		Pipeline:   "double",
		Operations: []Operation{{Kind: KindTranslate, X: Float(5), Y: Float(-5)}},
		Points:     []Point{{X: 1, Y: 1}},
	})
	require.NoError(t, err)
	requirePointInDelta(t, Point{X: -13, Y: -43}, resp.Points[0])
}

func TestProcessRequest_InlineRectangle(t *testing.T) {
	resp, err := ProcessRequest(nil, &TransformRequest{
		ID:        "inline",
		Rectangle: &Rectangle{Width: 10, Height: 10},
		Operations: []Operation{
			{Kind: KindRotate, Angle: Float(180)},
			{Kind: KindScale, X: Float(0), Y: Float(1)},
		},
		Points: []Point{{X: 0, Y: 0}},
	})
	require.NoError(t, err)
	requirePointInDelta(t, Point{X: 0, Y: 10}, resp.Points[0])
	assert.True(t, resp.Degenerate)
}

func TestProcessRequest_Errors(t *testing.T) {
	_, err := ProcessRequest(testConfig(), &TransformRequest{ID: "x", Pipeline: "missing"})
	assert.ErrorIs(t, err, ErrPipelineNotFound)

	_, err = ProcessRequest(testConfig(), &TransformRequest{ID: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline name or a rectangle")

	_, err = ProcessRequest(nil, &TransformRequest{
		ID:         "x",
		Rectangle:  &Rectangle{Width: 1, Height: 1},
		Operations: []Operation{{Kind: "warp"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown kind")
}

func TestDecodeRequest(t *testing.T) {
	req, err := DecodeRequest([]byte(`{"id":"a","pipeline":"double","points":[{"x":1,"y":2}]}`))
	require.NoError(t, err)
	assert.Equal(t, "a", req.ID)
	assert.Equal(t, "double", req.Pipeline)
	assert.Equal(t, []Point{{X: 1, Y: 2}}, req.Points)
	assert.Nil(t, req.Rectangle)

	_, err = DecodeRequest([]byte(`{"id":`))
	assert.Error(t, err)

	_, err = DecodeRequest([]byte(`{"id":"x/#","pipeline":"double"}`))
	assert.ErrorIs(t, err, ErrInvalidRequestID)
}

func TestValidateRequestID(t *testing.T) {
	tests := []struct {
		id      string
		wantErr bool
	}{
		{"", false},
		{"job-7", false},
		{"scan.2026-10-18_a", false},
		{"a/b", true},
		{"+", true},
		{"x/#", true},
		{"#", true},
		{"a\x00b", true},
	}

	for _, tt := range tests {
		err := ValidateRequestID(tt.id)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidRequestID, "id %q", tt.id)
		} else {
			assert.NoError(t, err, "id %q", tt.id)
		}
	}
}

func TestProcessRequest_ReportsRotation(t *testing.T) {
	resp, err := ProcessRequest(nil, &TransformRequest{
		ID:        "rot",
		Rectangle: &Rectangle{X: 5, Y: 5, Width: 10, Height: 20},
		Operations: []Operation{
			{Kind: KindRotate, Angle: Float(90)},
			{Kind: KindRotate, Angle: Float(-135)},
			{Kind: KindTranslate, X: Float(3)},
		},
	})
	require.NoError(t, err)
	assert.InDelta(t, 315, resp.Rotation, tolerance)
}

func TestErrorResponse(t *testing.T) {
	resp := ErrorResponse("id-1", ErrPipelineNotFound)
	assert.Equal(t, "id-1", resp.ID)
	assert.Equal(t, ErrPipelineNotFound.Error(), resp.Error)
	assert.NotNil(t, resp.Points)
}
