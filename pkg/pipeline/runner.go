package pipeline

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/pixelbooth/montage/pkg/cache"
	"github.com/pixelbooth/montage/pkg/compose"
	"github.com/pixelbooth/montage/pkg/compose/sink"
	"github.com/pixelbooth/montage/pkg/observability"
	"github.com/pixelbooth/montage/pkg/template"
)

// Result contains the outputs of a pipeline run.
type Result struct {
	// ID identifies this run (for logs and service responses).
	ID string

	// Layout is the parsed template.
	Layout *template.Layout

	// Artifact is the encoded composite.
	Artifact []byte

	// Format is the artifact's encoding.
	Format string

	// Stats contains timing information.
	Stats Stats

	// CacheInfo tracks whether the artifact came from cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Placements  int
	ParseTime   time.Duration
	ComposeTime time.Duration
	EncodeTime  time.Duration
}

// CacheInfo tracks cache hits.
type CacheInfo struct {
	ArtifactHit bool // whether the encoded composite came from cache
}

// Runner encapsulates pipeline execution with caching. It is stateless
// except for the cache and logger; multiple goroutines can safely share one
// Runner with distinct options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete parse → compose → encode pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{
		ID:     uuid.NewString(),
		Format: opts.Format,
	}

	// Stage 1: Parse
	parseStart := time.Now()
	observability.Pipeline().OnParseStart(ctx, opts.TemplateDir)
	layout, err := template.Parse(opts.TemplateDir, template.Options{SchemaPath: opts.SchemaPath})
	result.Stats.ParseTime = time.Since(parseStart)
	observability.Pipeline().OnParseComplete(ctx, opts.TemplateDir, placementCount(layout), result.Stats.ParseTime, err)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	result.Layout = layout
	result.Stats.Placements = len(layout.Placements)

	opts.Logger.Info("parsed template",
		"name", layout.Name,
		"canvas", fmt.Sprintf("%dx%d", layout.CanvasWidth, layout.CanvasHeight),
		"placements", len(layout.Placements),
		"duration", result.Stats.ParseTime)

	// Artifact cache lookup: the key covers the template document, every
	// photo's bytes and the render settings.
	photoData, err := readAll(opts.Photos)
	if err != nil {
		return nil, err
	}
	artifactKey, err := r.artifactKey(opts, photoData)
	if err != nil {
		return nil, err
	}
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, artifactKey); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "artifact")
			result.Artifact = data
			result.CacheInfo.ArtifactHit = true
			opts.Logger.Info("artifact cache hit", "bytes", len(data))
			return result, nil
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	// Stage 2: Compose
	composeStart := time.Now()
	observability.Pipeline().OnComposeStart(ctx, layout.Name, len(opts.Photos))
	photos, err := compose.LoadImages(opts.Photos)
	var composite *image.NRGBA
	if err == nil {
		composite, err = compose.Render(layout, photos)
	}
	result.Stats.ComposeTime = time.Since(composeStart)
	observability.Pipeline().OnComposeComplete(ctx, layout.Name, result.Stats.ComposeTime, err)
	if err != nil {
		return nil, fmt.Errorf("compose: %w", err)
	}

	opts.Logger.Info("composed image",
		"photos", len(layout.Placements),
		"duration", result.Stats.ComposeTime)

	// Stage 3: Encode
	encodeStart := time.Now()
	observability.Pipeline().OnEncodeStart(ctx, opts.Format)
	data, err := sink.Encode(composite, opts.Format)
	result.Stats.EncodeTime = time.Since(encodeStart)
	observability.Pipeline().OnEncodeComplete(ctx, opts.Format, len(data), result.Stats.EncodeTime, err)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	result.Artifact = data

	opts.Logger.Info("encoded artifact",
		"format", opts.Format,
		"bytes", len(data),
		"duration", result.Stats.EncodeTime)

	if err := r.Cache.Set(ctx, artifactKey, data, cache.TTLArtifact); err == nil {
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}

	return result, nil
}

// artifactKey builds the cache key for an encoded composite.
func (r *Runner) artifactKey(opts Options, photoData [][]byte) (string, error) {
	docPath := filepath.Join(opts.TemplateDir, template.DocumentFilename)
	doc, err := os.ReadFile(docPath)
	if err != nil {
		return "", fmt.Errorf("read template document: %w", err)
	}

	var h cache.Hasher
	h.Add(doc)
	for _, p := range photoData {
		h.Add(p)
	}
	return r.Keyer.ArtifactKey(h.Sum(), cache.ArtifactKeyOpts{Format: opts.Format}), nil
}

// readAll reads every photo file for hashing.
func readAll(paths []string) ([][]byte, error) {
	out := make([][]byte, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read photo %s: %w", p, err)
		}
		out = append(out, data)
	}
	return out, nil
}

// placementCount tolerates a nil layout for hook reporting.
func placementCount(l *template.Layout) int {
	if l == nil {
		return 0
	}
	return len(l.Placements)
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
