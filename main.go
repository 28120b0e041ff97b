package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
)

// Version is set at build time via -ldflags
var Version = "dev"

// AppOptions holds the parsed command line
type AppOptions struct {
	ConfigFile   string
	PipelineFile string
	PipelineName string
	Rect         string
	Points       string
	OutputFile   string
	Format       string
	HttpPort     int
	RenderOnly   bool
	GeoJSON      bool
	MqttMode     bool
	HttpMode     bool
}

// Runner is the set of modes main can dispatch to
type Runner interface {
	ApplyOptions(opts AppOptions)
	RunEvaluate() error
	RunRender() error
	RunGeoJSON() error
	RunService() error
}

func main() {
	if err := run(os.Args[1:], os.Stdout, NewApp()); err != nil {
		if err == flag.ErrHelp {
			os.Exit(2)
		}
		log.Fatal(err)
	}
}

// run parses args and dispatches to exactly one mode of app
func run(args []string, stdout io.Writer, app Runner) error {
	fs := flag.NewFlagSet("tudoxform", flag.ContinueOnError)
	fs.SetOutput(stdout)

	var opts AppOptions
	fs.StringVar(&opts.ConfigFile, "config", "config.yaml", "Path to configuration file")
	fs.StringVar(&opts.PipelineFile, "pipeline", "", "Path to a pipeline YAML file")
	fs.StringVar(&opts.PipelineName, "name", "", "Name of a pipeline defined in the config file")
	fs.StringVar(&opts.Rect, "rect", "", "Source rectangle x,y,width,height (overrides the pipeline rectangle)")
	fs.StringVar(&opts.Points, "points", "", "Points to map: x,y;x,y;...")
	fs.StringVar(&opts.OutputFile, "output", "", "Output file for --render and --geojson (default stdout for geojson)")
	fs.StringVar(&opts.Format, "format", "", "Render format: svg or png (default from output extension)")
	fs.BoolVar(&opts.RenderOnly, "render", false, "Render a preview diagram of the transform and exit")
	fs.BoolVar(&opts.GeoJSON, "geojson", false, "Export source and transformed outlines as GeoJSON and exit")
	fs.BoolVar(&opts.MqttMode, "mqtt", false, "Run MQTT service mode answering transform requests")
	fs.BoolVar(&opts.HttpMode, "http", false, "Enable HTTP server")
	fs.IntVar(&opts.HttpPort, "http-port", 0, "HTTP server port (default from config, else 8080)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "tudoxform version: %s\n", Version)
	app.ApplyOptions(opts)

	switch {
	case opts.RenderOnly:
		return app.RunRender()
	case opts.GeoJSON:
		return app.RunGeoJSON()
	case opts.MqttMode || opts.HttpMode:
		return app.RunService()
	default:
		return app.RunEvaluate()
	}
}
