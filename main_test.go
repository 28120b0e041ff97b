package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

type mockApp struct {
	opts   AppOptions
	called map[string]bool
	err    error
}

func newMockApp() *mockApp {
	return &mockApp{
		called: make(map[string]bool),
	}
}

func (m *mockApp) ApplyOptions(opts AppOptions) { m.opts = opts }
func (m *mockApp) RunEvaluate() error           { m.called["RunEvaluate"] = true; return m.err }
func (m *mockApp) RunRender() error             { m.called["RunRender"] = true; return m.err }
func (m *mockApp) RunGeoJSON() error            { m.called["RunGeoJSON"] = true; return m.err }
func (m *mockApp) RunService() error            { m.called["RunService"] = true; return m.err }

func TestRun_Flags(t *testing.T) {
	tests := []struct {
		name           string
		args           []string
		expectedCalled string
		verifyOpts     func(*testing.T, AppOptions)
	}{
		{
			name:           "Evaluate",
			args:           []string{"--pipeline", "rotate.yaml", "--points", "1,2;3,4"},
			expectedCalled: "RunEvaluate",
			verifyOpts: func(t *testing.T, opts AppOptions) {
				if opts.PipelineFile != "rotate.yaml" {
					t.Errorf("expected PipelineFile rotate.yaml, got %s", opts.PipelineFile)
				}
				if opts.Points != "1,2;3,4" {
					t.Errorf("expected Points 1,2;3,4, got %s", opts.Points)
				}
			},
		},
		{
			name:           "NamedPipeline",
			args:           []string{"--config", "/etc/tudoxform.yaml", "--name", "deskew", "--rect", "0,0,10,10"},
			expectedCalled: "RunEvaluate",
			verifyOpts: func(t *testing.T, opts AppOptions) {
				if opts.ConfigFile != "/etc/tudoxform.yaml" {
					t.Errorf("expected ConfigFile /etc/tudoxform.yaml, got %s", opts.ConfigFile)
				}
				if opts.PipelineName != "deskew" {
					t.Errorf("expected PipelineName deskew, got %s", opts.PipelineName)
				}
				if opts.Rect != "0,0,10,10" {
					t.Errorf("expected Rect 0,0,10,10, got %s", opts.Rect)
				}
			},
		},
		{
			name:           "Render",
			args:           []string{"--render", "--output", "preview.png", "--format", "png"},
			expectedCalled: "RunRender",
			verifyOpts: func(t *testing.T, opts AppOptions) {
				if opts.OutputFile != "preview.png" {
					t.Errorf("expected OutputFile preview.png, got %s", opts.OutputFile)
				}
				if opts.Format != "png" {
					t.Errorf("expected Format png, got %s", opts.Format)
				}
				if !opts.RenderOnly {
					t.Error("expected RenderOnly true")
				}
			},
		},
		{
			name:           "GeoJSON",
			args:           []string{"--geojson", "--output", "-"},
			expectedCalled: "RunGeoJSON",
			verifyOpts: func(t *testing.T, opts AppOptions) {
				if !opts.GeoJSON {
					t.Error("expected GeoJSON true")
				}
			},
		},
		{
			name:           "MqttMode",
			args:           []string{"--mqtt", "--http-port", "9090"},
			expectedCalled: "RunService",
			verifyOpts: func(t *testing.T, opts AppOptions) {
				if !opts.MqttMode {
					t.Error("expected MqttMode true")
				}
				if opts.HttpPort != 9090 {
					t.Errorf("expected HttpPort 9090, got %d", opts.HttpPort)
				}
			},
		},
		{
			name:           "HttpMode",
			args:           []string{"--http"},
			expectedCalled: "RunService",
			verifyOpts: func(t *testing.T, opts AppOptions) {
				if !opts.HttpMode {
					t.Error("expected HttpMode true")
				}
				if opts.ConfigFile != "config.yaml" {
					t.Errorf("expected default ConfigFile config.yaml, got %s", opts.ConfigFile)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newMockApp()
			var out bytes.Buffer
			err := run(tt.args, &out, app)
			if err != nil {
				t.Fatalf("run failed: %v", err)
			}

			if !app.called[tt.expectedCalled] {
				t.Errorf("expected %s to be called", tt.expectedCalled)
			}
			if len(app.called) != 1 {
				t.Errorf("expected exactly one mode to run, got %v", app.called)
			}

			if tt.verifyOpts != nil {
				tt.verifyOpts(t, app.opts)
			}
		})
	}
}

func TestRun_Help(t *testing.T) {
	app := newMockApp()
	var out bytes.Buffer
	err := run([]string{"--help"}, &out, app)
	if err == nil {
		t.Error("expected error from --help, got nil")
	}
	if !strings.Contains(out.String(), "Usage of tudoxform") {
		t.Errorf("expected usage info in output, got: %s", out.String())
	}
	if len(app.called) != 0 {
		t.Errorf("expected no mode to run, got %v", app.called)
	}
}

func TestRun_UnknownFlag(t *testing.T) {
	var out bytes.Buffer
	if err := run([]string{"--calibrate"}, &out, newMockApp()); err == nil {
		t.Error("expected error for unknown flag")
	}
}

func TestRun_Default(t *testing.T) {
	app := newMockApp()
	var out bytes.Buffer
	err := run([]string{}, &out, app)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	expectedPrefix := "tudoxform version: " + Version
	if !strings.Contains(out.String(), expectedPrefix) {
		t.Errorf("expected output to contain version, got: %s", out.String())
	}
	if !app.called["RunEvaluate"] {
		t.Error("expected RunEvaluate to be called by default")
	}
}

func TestRun_PropagatesModeError(t *testing.T) {
	app := newMockApp()
	app.err = errors.New("boom")

	var out bytes.Buffer
	err := run([]string{"--geojson"}, &out, app)
	if err == nil || err.Error() != "boom" {
		t.Errorf("expected boom error, got %v", err)
	}
}

func TestMain_Execute(t *testing.T) {
	// Smoke test to ensure version is set
	if Version == "" {
		t.Error("expected Version to be set")
	}
}
