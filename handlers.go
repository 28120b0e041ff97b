package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/kwv/tudoxform/xform"
)

// maxRequestBody bounds POST /transform payloads
const maxRequestBody = 1 << 20

// newHTTPServer creates an HTTP server with all endpoints
func newHTTPServer(config *xform.Config, results *xform.ResultTracker) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		status := struct {
			Status    string    `json:"status"`
			Timestamp time.Time `json:"timestamp"`
			Pipelines int       `json:"pipelines"`
			Results   int       `json:"results"`
		}{
			Status:    "ok",
			Timestamp: time.Now(),
			Pipelines: len(config.PipelineNames()),
			Results:   results.Len(),
		}
		if err := json.NewEncoder(w).Encode(status); err != nil {
			log.Printf("Error encoding health status: %v", err)
		}
	})

	mux.HandleFunc("/pipelines", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		names := config.PipelineNames()
		if names == nil {
			names = []string{}
		}
		if err := json.NewEncoder(w).Encode(names); err != nil {
			log.Printf("Error encoding pipeline names: %v", err)
		}
	})

	// Build a transform and map points; same payload as the MQTT request topic
	mux.HandleFunc("/transform", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, xform.ErrorResponse("", err))
			return
		}

		req, err := xform.DecodeRequest(payload)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, xform.ErrorResponse("", err))
			return
		}

		resp, err := xform.ProcessRequest(config, req)
		if err != nil {
			writeJSON(w, statusFor(err), xform.ErrorResponse(req.ID, err))
			return
		}
		results.Record(resp)
		writeJSON(w, http.StatusOK, resp)
	})

	// Recent results from HTTP and MQTT requests; ?id= selects one
	mux.HandleFunc("/results", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		if id == "" {
			writeJSON(w, http.StatusOK, results.List())
			return
		}
		result, ok := results.Get(id)
		if !ok {
			http.Error(w, "no result for id "+id, http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, result)
	})

	mux.HandleFunc("/preview.svg", func(w http.ResponseWriter, r *http.Request) {
		renderer, ok := previewFor(w, r, config)
		if !ok {
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "no-cache")
		if err := renderer.RenderToSVG(w); err != nil {
			log.Printf("Error encoding preview SVG: %v", err)
		}
	})

	mux.HandleFunc("/preview.png", func(w http.ResponseWriter, r *http.Request) {
		renderer, ok := previewFor(w, r, config)
		if !ok {
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		if err := renderer.RenderToPNG(w); err != nil {
			log.Printf("Error encoding preview PNG: %v", err)
		}
	})

	mux.HandleFunc("/outline.geojson", func(w http.ResponseWriter, r *http.Request) {
		b, points, ok := builderFor(w, r, config)
		if !ok {
			return
		}
		w.Header().Set("Content-Type", "application/geo+json")
		if err := json.NewEncoder(w).Encode(xform.OutlineFeatureCollection(b, points)); err != nil {
			log.Printf("Error encoding outline GeoJSON: %v", err)
		}
	})

	// Default route lists pipelines with links to their previews
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = fmt.Fprint(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>tudoxform</title>
<style>
body{font-family:sans-serif;background:#1a1a1a;color:#eee}
img{display:block;max-width:90vw;background:#fff;margin-bottom:2em}
</style>
</head>
<body>
`)
		for _, name := range config.PipelineNames() {
			q := url.QueryEscape(name)
			_, _ = fmt.Fprintf(w, "<h2>%s</h2>\n<img src=\"/preview.svg?pipeline=%s\" alt=\"%s\">\n",
				html.EscapeString(name), q, html.EscapeString(name))
		}
		_, _ = fmt.Fprint(w, "</body>\n</html>")
	})

	// Wrap mux with logging middleware
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[HTTP] %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)
		mux.ServeHTTP(w, r)
	})
}

// builderFor resolves ?pipeline= and optional ?points= into a builder,
// writing an error response when that fails.
func builderFor(w http.ResponseWriter, r *http.Request, config *xform.Config) (*xform.TransformBuilder, []xform.Point, bool) {
	name := r.URL.Query().Get("pipeline")
	if name == "" {
		http.Error(w, "missing pipeline parameter", http.StatusBadRequest)
		return nil, nil, false
	}

	p, err := xform.ResolvePipeline(config, name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return nil, nil, false
	}

	var points []xform.Point
	if raw := r.URL.Query().Get("points"); raw != "" {
		points, err = parsePoints(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return nil, nil, false
		}
	}

	b, err := p.Builder()
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return nil, nil, false
	}
	return b, points, true
}

func previewFor(w http.ResponseWriter, r *http.Request, config *xform.Config) (*xform.PreviewRenderer, bool) {
	b, points, ok := builderFor(w, r, config)
	if !ok {
		return nil, false
	}
	renderer := xform.NewPreviewRenderer(b, points)
	if config != nil {
		renderer.ApplyConfig(config.Preview)
	}
	if err := renderer.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return renderer, true
}

// statusFor maps a processing error to an HTTP status
func statusFor(err error) int {
	if errors.Is(err, xform.ErrPipelineNotFound) {
		return http.StatusNotFound
	}
	return http.StatusUnprocessableEntity
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}
