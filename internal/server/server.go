// =============================================================================
// Excel to Tally XML Converter - Web Shell
// =============================================================================
//
// A single-page upload form in front of the converter.
//
// ROUTES:
//   GET  /          upload form
//   POST /          convert the uploaded spreadsheet and download the XML
//   POST /convert   same as POST /
//   GET  /healthz   liveness check
//
// Every request writes its upload and its output to fresh uuid-named files,
// so concurrent requests never share a path. Old files are removed by the
// cleanup job (see cleanup.go).
//
// =============================================================================

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ginjaninja78/excel-to-tally-xml/internal/config"
	"github.com/ginjaninja78/excel-to-tally-xml/internal/converter"
	"github.com/ginjaninja78/excel-to-tally-xml/pkg/utils"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// FileConverter converts one spreadsheet file to a Tally XML file.
type FileConverter interface {
	ConvertFile(inputPath, sheet, outputPath string) (*converter.Result, error)
}

// Server serves the upload form and conversion endpoint.
type Server struct {
	cfg       *config.Config
	converter FileConverter
	files     *utils.FileManager
	logger    *zap.Logger
}

// New creates a Server. A nil logger disables logging.
func New(cfg *config.Config, conv FileConverter, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Server{
		cfg:       cfg,
		converter: conv,
		files:     utils.NewFileManager("", cfg.OutputDir, "", cfg.UploadDir),
		logger:    logger,
	}
}

// Router returns the HTTP routes.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.logRequests)

	router.HandleFunc("/", s.handleForm).Methods(http.MethodGet)
	router.HandleFunc("/", s.handleConvert).Methods(http.MethodPost)
	router.HandleFunc("/convert", s.handleConvert).Methods(http.MethodPost)
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	return router
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if err := s.files.EnsureDirectories(); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              s.cfg.Server.Listen,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	return nil
}

// =============================================================================
// HANDLERS
// =============================================================================

var formTemplate = template.Must(template.New("form").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>Excel to Tally XML</title>
</head>
<body>
    <h2>Excel to Tally XML Converter</h2>
    <form method="post" action="/" enctype="multipart/form-data">
        <p><input type="file" name="file" accept="{{.Accept}}" required></p>
        <p><label>Sheet (optional): <input type="text" name="sheet"></label></p>
        <p><button type="submit">Convert</button></p>
    </form>
</body>
</html>
`))

var errorTemplate = template.Must(template.New("error").Parse(
	`<h3 style='color:red;'>Error: {{.}}</h3>`))

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := struct{ Accept string }{Accept: strings.Join(utils.SpreadsheetExtensions, ",")}
	if err := formTemplate.Execute(w, data); err != nil {
		s.logger.Error("failed to render form", zap.Error(err))
	}
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(s.cfg.Server.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			s.fail(w, http.StatusBadRequest, fmt.Sprintf("upload exceeds %d MB", s.cfg.Server.MaxUploadMB))
			return
		}
		s.fail(w, http.StatusBadRequest, "invalid upload: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.fail(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if !utils.HasExtension(name, utils.SpreadsheetExtensions...) {
		s.fail(w, http.StatusBadRequest, fmt.Sprintf("unsupported file type %q", filepath.Ext(name)))
		return
	}

	if err := s.files.EnsureDirectories(); err != nil {
		s.logger.Error("failed to prepare directories", zap.Error(err))
		s.fail(w, http.StatusInternalServerError, "server storage unavailable")
		return
	}

	inputPath := utils.UniquePath(s.cfg.UploadDir, strings.ToLower(filepath.Ext(name)))
	if err := saveUpload(file, inputPath); err != nil {
		s.logger.Error("failed to save upload", zap.String("file", name), zap.Error(err))
		s.fail(w, http.StatusInternalServerError, "could not store upload")
		return
	}

	outputPath := utils.UniquePath(s.cfg.OutputDir, ".xml")
	sheet := strings.TrimSpace(r.FormValue("sheet"))

	result, err := s.converter.ConvertFile(inputPath, sheet, outputPath)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, converter.ErrWrite) {
			status = http.StatusInternalServerError
		}
		s.logger.Warn("conversion failed", zap.String("file", name), zap.Error(err))
		s.fail(w, status, describe(err))
		return
	}

	s.logger.Info("converted upload",
		zap.String("file", name),
		zap.Int("ledgers", result.Stats.LedgersWritten),
		zap.Int("warnings", len(result.Warnings)))

	s.sendXML(w, r, result.OutputFile)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// sendXML serves the generated document as a download.
func (s *Server) sendXML(w http.ResponseWriter, r *http.Request, path string) {
	f, err := os.Open(path)
	if err != nil {
		s.logger.Error("failed to open output", zap.String("path", path), zap.Error(err))
		s.fail(w, http.StatusInternalServerError, "generated file is missing")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		s.fail(w, http.StatusInternalServerError, "generated file is unreadable")
		return
	}

	w.Header().Set("Content-Type", "application/xml")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", s.cfg.Server.DownloadName))
	http.ServeContent(w, r, s.cfg.Server.DownloadName, info.ModTime(), f)
}

// fail writes the inline error page. It never serves a file.
func (s *Server) fail(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := errorTemplate.Execute(w, message); err != nil {
		s.logger.Error("failed to render error", zap.Error(err))
	}
}

// describe hides server paths from the user-facing message.
func describe(err error) string {
	var convErr *converter.Error
	if errors.As(err, &convErr) {
		return fmt.Sprintf("%v: %v", convErr.Kind, convErr.Err)
	}
	return err.Error()
}

func saveUpload(src io.Reader, path string) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return err
	}

	return dst.Close()
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}
