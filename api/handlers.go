package api

import (
	"archive/zip"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"panelnorm/domain/panel"
	"panelnorm/internal"
	"panelnorm/internal/geocode"
)

// maxUploadSize bounds uploaded workbook size (32MB).
const maxUploadSize = 32 << 20

// handleUpload accepts a multipart workbook upload, runs the
// transformation synchronously, and returns the finished job.
func (a *App) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext == ".xls" {
		http.Error(w, "legacy .xls workbooks are not supported; save the file as .xlsx and retry", http.StatusBadRequest)
		return
	}
	if ext != ".xlsx" {
		http.Error(w, "only .xlsx files are accepted", http.StatusBadRequest)
		return
	}

	uploadPath := filepath.Join(a.cfg.Paths.UploadDir, uuid.New().String()+ext)
	dst, err := os.Create(uploadPath)
	if err != nil {
		http.Error(w, "failed to store upload", http.StatusInternalServerError)
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		os.Remove(uploadPath)
		http.Error(w, "failed to store upload", http.StatusInternalServerError)
		return
	}
	dst.Close()
	defer os.Remove(uploadPath)

	job, err := a.manager.Process(r.Context(), uploadPath, header.Filename)
	if err != nil {
		internal.DefaultLogger.Error("upload %s failed: %v", header.Filename, err)
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// handleStatus returns the bookkeeping record for one job.
func (a *App) handleStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job, err := a.repo.Get(r.Context(), jobID)
	if err != nil {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// handleDownload serves one output workbook. The filename must carry the
// job's own prefix, which both scopes downloads to the job and blocks
// path traversal.
func (a *App) handleDownload(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	filename := filepath.Base(chi.URLParam(r, "filename"))
	if !strings.HasPrefix(filename, jobID+"_") {
		http.Error(w, "file does not belong to this job", http.StatusForbidden)
		return
	}
	path := filepath.Join(a.cfg.Paths.ProcessedDir, filename)
	if _, err := os.Stat(path); err != nil {
		http.Error(w, "file not found or expired", http.StatusNotFound)
		return
	}
	attachment := "transformed_" + strings.TrimPrefix(filename, jobID+"_")
	w.Header().Set("Content-Disposition", `attachment; filename="`+attachment+`"`)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	http.ServeFile(w, r, path)
}

// handleDownloadAll serves every output of a job: the single file
// directly, or a zip archive when the job produced several.
func (a *App) handleDownloadAll(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job, err := a.repo.Get(r.Context(), jobID)
	if err != nil {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}
	if len(job.OutputFiles) == 0 {
		http.Error(w, "job produced no output files", http.StatusNotFound)
		return
	}
	if len(job.OutputFiles) == 1 {
		f := job.OutputFiles[0]
		w.Header().Set("Content-Disposition",
			`attachment; filename="transformed_`+strings.TrimPrefix(f.Filename, jobID+"_")+`"`)
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		http.ServeFile(w, r, filepath.Join(a.cfg.Paths.ProcessedDir, f.Filename))
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="transformed_templates.zip"`)
	w.Header().Set("Content-Type", "application/zip")
	zw := zip.NewWriter(w)
	defer zw.Close()
	for _, f := range job.OutputFiles {
		src, err := os.Open(filepath.Join(a.cfg.Paths.ProcessedDir, f.Filename))
		if err != nil {
			internal.DefaultLogger.Warn("download: missing output %s: %v", f.Filename, err)
			continue
		}
		entry, err := zw.Create(f.Filename)
		if err != nil {
			src.Close()
			return
		}
		if _, err := io.Copy(entry, src); err != nil {
			src.Close()
			return
		}
		src.Close()
	}
}

type geocodeRequest struct {
	PostalCode string `json:"postal_code"`
	Address    string `json:"address"`
	Country    string `json:"country"`
}

type geocodeResponse struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Method    string   `json:"method"`
}

// handleGeocode resolves one ad-hoc geocoding request outside any job.
func (a *App) handleGeocode(w http.ResponseWriter, r *http.Request) {
	var req geocodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.PostalCode == "" && req.Address == "" {
		http.Error(w, "postal_code or address required", http.StatusBadRequest)
		return
	}

	country := panel.CountrySingapore
	if strings.EqualFold(strings.TrimSpace(req.Country), string(panel.CountryMalaysia)) {
		country = panel.CountryMalaysia
	}

	svc := geocode.New(a.lookup, a.remote)
	lat, lng, method := svc.Geocode(r.Context(), req.PostalCode, req.Address, country)
	writeJSON(w, http.StatusOK, geocodeResponse{
		Latitude:  lat,
		Longitude: lng,
		Method:    string(method),
	})
}

// handleHealth reports readiness and the state of both geocoding tiers.
func (a *App) handleHealth(w http.ResponseWriter, _ *http.Request) {
	keyHint := ""
	if key := a.cfg.Geocoding.GoogleAPIKey; len(key) >= 4 {
		keyHint = "..." + key[len(key)-4:]
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":              "ok",
		"postal_codes_loaded": len(a.lookup),
		"geocoding_enabled":   a.cfg.Geocoding.Enabled,
		"remote_configured":   a.remote != nil,
		"google_api_key_hint": keyHint,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
