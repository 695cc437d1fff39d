// Package handler exposes the import pipeline over HTTP.
package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/1enzo1/nfe-product-import/internal/config"
	"github.com/1enzo1/nfe-product-import/internal/importer/pipeline"
)

// Health reports liveness.
func Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// Process triggers a run over the XMLs already in the input folder.
func Process(p *pipeline.Pipeline, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		summary, err := p.Run(nil, "api")
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		logger.Info().
			Str("run_id", summary.RunID).
			Dur("elapsed", time.Since(start)).
			Msg("process done")
		writeJSON(w, http.StatusOK, summary)
	}
}

// UploadNFE receives NF-e XML files as multipart form data, stores
// them in the input folder and runs the pipeline over just those.
func UploadNFE(p *pipeline.Pipeline, cfg config.Settings, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if err := r.ParseMultipartForm(int64(cfg.Server.MaxUploadMB) << 20); err != nil {
			http.Error(w, "bad multipart form: "+err.Error(), http.StatusBadRequest)
			return
		}
		form := r.MultipartForm
		if form == nil || len(form.File["files"]) == 0 {
			http.Error(w, "missing files", http.StatusBadRequest)
			return
		}

		var saved []string
		for _, fh := range form.File["files"] {
			if !strings.EqualFold(filepath.Ext(fh.Filename), ".xml") {
				http.Error(w, "only .xml files are accepted: "+fh.Filename, http.StatusBadRequest)
				return
			}
			path, err := saveUpload(cfg.Paths.NFEInputFolder, fh.Filename, fh)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			saved = append(saved, path)
		}

		summary, err := p.Run(saved, "api")
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		logger.Info().Str("run_id", summary.RunID).Int("files", len(saved)).Msg("upload processed")
		writeJSON(w, http.StatusOK, summary)
	}
}

// Runs lists persisted run summaries, newest first.
func Runs(p *pipeline.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runs, err := p.ListRuns()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, runs)
	}
}

// Metrics returns the recorded coverage history.
func Metrics(p *pipeline.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := p.Metrics()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, records)
	}
}

// Pendings streams the pendings CSV of the most recent run that
// produced one.
func Pendings(p *pipeline.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runs, err := p.ListRuns()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		for _, run := range runs {
			if run.PendingsPath == "" {
				continue
			}
			f, err := os.Open(run.PendingsPath)
			if err != nil {
				continue
			}
			defer f.Close()
			w.Header().Set("Content-Type", "text/csv; charset=utf-8")
			w.Header().Set("Content-Disposition", "attachment; filename="+filepath.Base(run.PendingsPath))
			_, _ = io.Copy(w, f)
			return
		}
		http.Error(w, "no pendings recorded", http.StatusNotFound)
	}
}

type reconcileRequest struct {
	Key string `json:"key"`
	SKU string `json:"sku"`
}

// Reconcile confirms a manual match and stores it in the synonym
// cache so future runs resolve the same document key directly.
func Reconcile(p *pipeline.Pipeline, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req reconcileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Key) == "" || strings.TrimSpace(req.SKU) == "" {
			http.Error(w, "key and sku are required", http.StatusBadRequest)
			return
		}
		if err := p.RegisterMatch(req.Key, req.SKU); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		logger.Info().Str("key", req.Key).Str("sku", req.SKU).Msg("reconcile done")
		writeJSON(w, http.StatusOK, map[string]string{"status": "registered"})
	}
}
