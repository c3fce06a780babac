package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/pixelbooth/montage/pkg/cache"
	"github.com/pixelbooth/montage/pkg/compose"
	"github.com/pixelbooth/montage/pkg/compose/sink"
	"github.com/pixelbooth/montage/pkg/observability"
	"github.com/pixelbooth/montage/pkg/pipeline"
	"github.com/pixelbooth/montage/pkg/template"
)

// maxUploadBytes bounds the total size of a multipart render request.
const maxUploadBytes = 64 << 20

// serveCommand creates the serve command, which runs the HTTP render
// service. Templates are loaded once at startup; broken template
// directories are skipped with a warning.
func (c *CLI) serveCommand() *cobra.Command {
	var addr, schema string

	cmd := &cobra.Command{
		Use:   "serve <template-dir>",
		Short: "Run the HTTP render service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.Config.ListenAddr
			}
			if addr == "" {
				addr = ":8490"
			}
			return c.runServe(cmd.Context(), args[0], addr, schema)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default :8490)")
	cmd.Flags().StringVar(&schema, "schema", "", "path to PhotoTemplate.xsd")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, dir, addr, schema string) error {
	logger := loggerFromContext(ctx)

	opts := template.Options{SchemaPath: c.schemaPath(schema)}
	mgr, err := template.NewManager(dir, opts, logger)
	if err != nil {
		return err
	}
	logger.Info("templates loaded", "dir", dir, "count", mgr.Count())

	runner, err := c.newRunner(ctx, false)
	if err != nil {
		return err
	}
	defer runner.Close()

	srv := &server{
		manager:    mgr,
		runner:     runner,
		schemaPath: c.schemaPath(schema),
		logger:     logger,
	}

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		printInfo("Listening on %s", addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// server holds the HTTP service dependencies.
type server struct {
	manager    *template.Manager
	runner     *pipeline.Runner
	schemaPath string
	logger     *log.Logger
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/templates", s.handleListTemplates)
	r.Get("/templates/{name}/preview", s.handlePreview)
	r.Post("/render/{name}", s.handleRender)

	return r
}

// logRequests logs each request with its chi request ID and duration.
func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Millisecond))
	})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// templateInfo is the JSON shape for a template listing entry.
type templateInfo struct {
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Author       string `json:"author,omitempty"`
	CanvasWidth  int    `json:"canvasWidth"`
	CanvasHeight int    `json:"canvasHeight"`
	Placements   int    `json:"placements"`
	MaxWidth     int    `json:"maxPlacementWidth"`
	MaxHeight    int    `json:"maxPlacementHeight"`
}

func (s *server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	layouts := s.manager.Layouts()
	infos := make([]templateInfo, 0, len(layouts))
	for _, l := range layouts {
		mw, mh := l.MaxPlacementSize()
		infos = append(infos, templateInfo{
			Name:         l.Name,
			Description:  l.Description,
			Author:       l.Author,
			CanvasWidth:  l.CanvasWidth,
			CanvasHeight: l.CanvasHeight,
			Placements:   len(l.Placements),
			MaxWidth:     mw,
			MaxHeight:    mh,
		})
	}
	writeJSON(w, http.StatusOK, infos)
}

// handlePreview serves the wireframe preview of a template. Previews are
// cached keyed on the template document's content hash, so a re-authored
// template gets a fresh preview while unchanged ones are a cache lookup.
func (s *server) handlePreview(w http.ResponseWriter, r *http.Request) {
	l, ok := s.manager.Find(chi.URLParam(r, "name"))
	if !ok {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}

	doc, err := os.ReadFile(filepath.Join(l.Dir, template.DocumentFilename))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	key := s.runner.Keyer.PreviewKey(cache.Hash(doc), cache.PreviewKeyOpts{Format: sink.FormatPNG})

	if data, hit, err := s.runner.Cache.Get(r.Context(), key); err == nil && hit {
		observability.Cache().OnCacheHit(r.Context(), "preview")
		writePreview(w, data, true)
		return
	}
	observability.Cache().OnCacheMiss(r.Context(), "preview")

	img, err := compose.Preview(l)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	data, err := sink.Encode(img, sink.FormatPNG)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.runner.Cache.Set(r.Context(), key, data, cache.TTLPreview); err == nil {
		observability.Cache().OnCacheSet(r.Context(), "preview", len(data))
	}
	writePreview(w, data, false)
}

func writePreview(w http.ResponseWriter, data []byte, cached bool) {
	w.Header().Set("Content-Type", "image/png")
	if cached {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleRender accepts a multipart form with one or more "photo" files,
// composites them into the named template and returns the encoded artifact.
func (s *server) handleRender(w http.ResponseWriter, r *http.Request) {
	l, ok := s.manager.Find(chi.URLParam(r, "name"))
	if !ok {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.DefaultFormat
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	files := r.MultipartForm.File["photo"]
	if len(files) < len(l.Placements) {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("template needs %d photos, got %d", len(l.Placements), len(files)))
		return
	}

	paths, cleanup, err := saveUploads(files)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer cleanup()

	result, err := s.runner.Execute(r.Context(), pipeline.Options{
		TemplateDir: l.Dir,
		SchemaPath:  s.schemaPath,
		Photos:      paths,
		Format:      format,
		Logger:      s.logger,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/"+result.Format)
	w.Header().Set("X-Render-ID", result.ID)
	if result.CacheInfo.ArtifactHit {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Artifact)
}

// saveUploads writes uploaded photos to a temp directory so the pipeline
// can read them by path. The returned cleanup removes the directory.
func saveUploads(files []*multipart.FileHeader) ([]string, func(), error) {
	dir, err := os.MkdirTemp("", "montage-upload-")
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	paths := make([]string, 0, len(files))
	for i, fh := range files {
		src, err := fh.Open()
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		path := filepath.Join(dir, fmt.Sprintf("photo_%02d%s", i, filepath.Ext(fh.Filename)))
		dst, err := os.Create(path)
		if err != nil {
			src.Close()
			cleanup()
			return nil, nil, err
		}
		_, err = io.Copy(dst, src)
		src.Close()
		if cerr := dst.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		paths = append(paths, path)
	}
	return paths, cleanup, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
