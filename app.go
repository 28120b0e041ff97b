package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/kwv/tudoxform/xform"
)

// App encapsulates the application state and dependencies
type App struct {
	Config  *xform.Config
	Service *xform.TransformService
	Results *xform.ResultTracker
	Out     io.Writer

	// CLI Flags (effectively dependencies)
	ConfigFile   string
	PipelineFile string
	PipelineName string
	Rect         string
	Points       string
	OutputFile   string
	Format       string
	HttpPort     int
	MqttMode     bool
	HttpMode     bool
}

// NewApp creates a new App instance
func NewApp() *App {
	return &App{
		Results: xform.NewResultTracker(xform.DefaultResultCapacity),
		Out:     os.Stdout,
	}
}

// ApplyOptions applies CLI options to the App instance
func (a *App) ApplyOptions(opts AppOptions) {
	a.ConfigFile = opts.ConfigFile
	a.PipelineFile = opts.PipelineFile
	a.PipelineName = opts.PipelineName
	a.Rect = opts.Rect
	a.Points = opts.Points
	a.OutputFile = opts.OutputFile
	a.Format = opts.Format
	a.HttpPort = opts.HttpPort
	a.MqttMode = opts.MqttMode
	a.HttpMode = opts.HttpMode
}

// loadOptionalConfig loads the config file when it exists. A missing file is
// not an error: one-shot modes can run from a pipeline file alone.
func (a *App) loadOptionalConfig() (*xform.Config, error) {
	if a.Config != nil {
		return a.Config, nil
	}
	if _, err := os.Stat(a.ConfigFile); err != nil {
		return nil, nil
	}
	config, err := xform.LoadConfig(a.ConfigFile)
	if err != nil {
		return nil, err
	}
	a.Config = config
	return config, nil
}

// loadPipeline resolves the pipeline to evaluate.
// Priority: --pipeline file > --name from config > bare --rect.
// --rect always overrides the pipeline rectangle.
func (a *App) loadPipeline() (*xform.Pipeline, error) {
	var p *xform.Pipeline

	switch {
	case a.PipelineFile != "":
		loaded, err := xform.LoadPipeline(a.PipelineFile)
		if err != nil {
			return nil, err
		}
		p = loaded
	case a.PipelineName != "":
		config, err := a.loadOptionalConfig()
		if err != nil {
			return nil, err
		}
		if config == nil {
			return nil, fmt.Errorf("config file not found: %s", a.ConfigFile)
		}
		named, err := xform.ResolvePipeline(config, a.PipelineName)
		if err != nil {
			return nil, err
		}
		copied := *named
		p = &copied
	case a.Rect != "":
		p = &xform.Pipeline{Name: "cli"}
	default:
		return nil, errors.New("no pipeline given: use --pipeline, --name or --rect")
	}

	if a.Rect != "" {
		rect, err := parseRect(a.Rect)
		if err != nil {
			return nil, err
		}
		p.Rectangle = rect
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (a *App) loadPoints() ([]xform.Point, error) {
	if a.Points == "" {
		return nil, nil
	}
	return parsePoints(a.Points)
}

// RunEvaluate builds the pipeline and prints the matrix and mapped points as JSON
func (a *App) RunEvaluate() error {
	p, err := a.loadPipeline()
	if err != nil {
		return err
	}
	points, err := a.loadPoints()
	if err != nil {
		return err
	}

	rect := p.Rectangle
	resp, err := xform.ProcessRequest(nil, &xform.TransformRequest{
		ID:         p.Name,
		Rectangle:  &rect,
		Operations: p.Operations,
		Points:     points,
	})
	if err != nil {
		return err
	}
	if resp.Degenerate {
		log.Printf("Warning: pipeline %s collapses the plane (determinant %.3g)", p.Name, resp.Matrix.Determinant())
	}

	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	_, err = fmt.Fprintln(a.Out, string(data))
	return err
}

// renderFormat picks svg or png from --format, falling back to the output extension
func (a *App) renderFormat() (string, error) {
	format := strings.ToLower(a.Format)
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(a.OutputFile)), ".")
	}
	switch format {
	case "svg", "png":
		return format, nil
	case "":
		return "svg", nil
	default:
		return "", fmt.Errorf("invalid format: %s (must be svg or png)", format)
	}
}

// RunRender draws the source and transformed outlines to --output
func (a *App) RunRender() error {
	if a.OutputFile == "" {
		return errors.New("--render requires --output")
	}
	format, err := a.renderFormat()
	if err != nil {
		return err
	}

	p, err := a.loadPipeline()
	if err != nil {
		return err
	}
	points, err := a.loadPoints()
	if err != nil {
		return err
	}
	b, err := p.Builder()
	if err != nil {
		return err
	}

	renderer := xform.NewPreviewRenderer(b, points)
	config, err := a.loadOptionalConfig()
	if err != nil {
		log.Printf("Warning: Failed to load config file %s: %v", a.ConfigFile, err)
	} else if config != nil {
		renderer.ApplyConfig(config.Preview)
	}

	outFile, err := os.Create(a.OutputFile)
	if err != nil {
		return fmt.Errorf("creating output file %s: %w", a.OutputFile, err)
	}
	defer func() {
		if err := outFile.Close(); err != nil {
			log.Printf("Warning: error closing output file %s: %v", a.OutputFile, err)
		}
	}()

	if format == "png" {
		err = renderer.RenderToPNG(outFile)
	} else {
		err = renderer.RenderToSVG(outFile)
	}
	if err != nil {
		return fmt.Errorf("rendering %s: %w", format, err)
	}

	fmt.Fprintf(a.Out, "Created %s preview: %s\n", format, a.OutputFile)
	return nil
}

// RunGeoJSON writes the outlines and mapped points as a FeatureCollection.
// Without --output the collection goes to stdout.
func (a *App) RunGeoJSON() error {
	p, err := a.loadPipeline()
	if err != nil {
		return err
	}
	points, err := a.loadPoints()
	if err != nil {
		return err
	}
	b, err := p.Builder()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(xform.OutlineFeatureCollection(b, points), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding GeoJSON: %w", err)
	}

	if a.OutputFile == "" || a.OutputFile == "-" {
		_, err = fmt.Fprintln(a.Out, string(data))
		return err
	}
	if err := os.WriteFile(a.OutputFile, data, 0644); err != nil {
		return fmt.Errorf("writing GeoJSON file: %w", err)
	}
	fmt.Fprintf(a.Out, "Created GeoJSON: %s\n", a.OutputFile)
	return nil
}

// httpPort resolves the listen port: flag, then config, then default
func (a *App) httpPort() int {
	if a.HttpPort > 0 {
		return a.HttpPort
	}
	if a.Config != nil && a.Config.HTTP.Port > 0 {
		return a.Config.HTTP.Port
	}
	return xform.DefaultHTTPPort
}

// RunService starts the MQTT and/or HTTP service and blocks until interrupted
func (a *App) RunService() error {
	fmt.Fprintln(a.Out, "Starting tudoxform service...")

	config, err := xform.LoadConfig(a.ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w (looked at %s)", err, a.ConfigFile)
	}
	a.Config = config
	log.Printf("Loaded config from %s (%d pipelines)", a.ConfigFile, len(config.Pipelines))

	if a.MqttMode {
		svc, err := xform.NewTransformService(config)
		if err != nil {
			return fmt.Errorf("failed to initialize MQTT: %w", err)
		}
		if svc == nil {
			return errors.New("MQTT broker not configured in config.yaml")
		}
		svc.SetResultHandler(func(resp *xform.TransformResponse) {
			a.Results.Record(resp)
			log.Printf("[MQTT] %s: mapped %d points", resp.ID, len(resp.Points))
		})
		a.Service = svc
	}

	port := a.httpPort()
	if a.HttpMode {
		handler := newHTTPServer(config, a.Results)
		go func() {
			addr := fmt.Sprintf("0.0.0.0:%d", port)
			log.Printf("[HTTP] Starting server on %s", addr)
			if err := http.ListenAndServe(addr, handler); err != nil {
				log.Fatalf("[HTTP] Server error: %v", err)
			}
			log.Printf("[HTTP] Server stopped unexpectedly")
		}()
	}

	fmt.Fprintln(a.Out, "\nService Running")
	fmt.Fprintln(a.Out, "===============")

	if a.MqttMode {
		settings := xform.EffectiveMQTT(config)
		fmt.Fprintln(a.Out, "\nMQTT:")
		fmt.Fprintf(a.Out, "  Subscribed topic: %s\n", settings.RequestTopic)
		fmt.Fprintf(a.Out, "  Publishing to: %s/result/{requestID}\n", settings.PublishPrefix)
	}

	if a.HttpMode {
		fmt.Fprintf(a.Out, "\nHTTP endpoints (port %d):\n", port)
		fmt.Fprintln(a.Out, "  GET  /health                     - Health check")
		fmt.Fprintln(a.Out, "  GET  /pipelines                  - Configured pipeline names")
		fmt.Fprintln(a.Out, "  POST /transform                  - Build a transform and map points")
		fmt.Fprintln(a.Out, "  GET  /results[?id=ID]            - Recent transform results")
		fmt.Fprintln(a.Out, "  GET  /preview.svg?pipeline=NAME  - Vector preview")
		fmt.Fprintln(a.Out, "  GET  /preview.png?pipeline=NAME  - Raster preview")
		fmt.Fprintln(a.Out, "  GET  /outline.geojson?pipeline=NAME - Outlines as GeoJSON")
	}

	fmt.Fprintln(a.Out, "\nPress Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	fmt.Fprintln(a.Out, "\nShutting down service...")
	if a.Service != nil {
		a.Service.Disconnect()
	}
	fmt.Fprintln(a.Out, "Service stopped")
	return nil
}

// parseRect parses "x,y,width,height"
func parseRect(s string) (xform.Rectangle, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return xform.Rectangle{}, fmt.Errorf("invalid rectangle %q: want x,y,width,height", s)
	}
	var vals [4]float64
	for i, part := range parts {
		v, err := parseCoordinate(part)
		if err != nil {
			return xform.Rectangle{}, fmt.Errorf("invalid rectangle %q: %w", s, err)
		}
		vals[i] = v
	}
	return xform.Rectangle{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}, nil
}

// parseCoordinate parses one finite coordinate
func parseCoordinate(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("coordinate %q is not finite", s)
	}
	return v, nil
}

// parsePoints parses "x,y;x,y;..."
func parsePoints(s string) ([]xform.Point, error) {
	var points []xform.Point
	for _, pair := range strings.Split(s, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		xy := strings.Split(pair, ",")
		if len(xy) != 2 {
			return nil, fmt.Errorf("invalid point %q: want x,y", pair)
		}
		x, err := parseCoordinate(xy[0])
		if err != nil {
			return nil, fmt.Errorf("invalid point %q: %w", pair, err)
		}
		y, err := parseCoordinate(xy[1])
		if err != nil {
			return nil, fmt.Errorf("invalid point %q: %w", pair, err)
		}
		points = append(points, xform.Point{X: x, Y: y})
	}
	return points, nil
}
