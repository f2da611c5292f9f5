package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"panelnorm/internal/config"
	"panelnorm/internal/geocode"
	"panelnorm/internal/jobs"
	"panelnorm/internal/transform"
	"panelnorm/models"
)

func testApp(t *testing.T) (*App, *jobs.MemoryStore) {
	t.Helper()
	cfg := &config.Config{}
	cfg.Server.Port = "0"
	cfg.Paths.UploadDir = t.TempDir()
	cfg.Paths.ProcessedDir = t.TempDir()
	cfg.Geocoding.Enabled = true

	repo := jobs.NewMemoryStore()
	lookup := geocode.LookupTable{"307506": {Lat: 1.32, Lng: 103.84}}
	pipeline := transform.NewPipeline(lookup, nil, true)
	manager := jobs.NewManager(cfg.Paths.ProcessedDir, pipeline, repo)
	return NewApp(cfg, manager, repo, lookup, nil), repo
}

func TestHandleHealth(t *testing.T) {
	app, _ := testApp(t)
	rec := httptest.NewRecorder()
	app.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(1), body["postal_codes_loaded"])
	assert.Equal(t, false, body["remote_configured"])
}

func TestHandleStatus(t *testing.T) {
	app, repo := testApp(t)
	job := &models.Job{ID: "job1", Status: models.JobStatusCompleted, TotalRecords: 5}
	require.NoError(t, repo.Save(context.Background(), job))

	rec := httptest.NewRecorder()
	app.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status/job1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got models.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 5, got.TotalRecords)
}

func TestHandleStatusNotFound(t *testing.T) {
	app, _ := testApp(t)
	rec := httptest.NewRecorder()
	app.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleGeocodeLocalHit(t *testing.T) {
	app, _ := testApp(t)
	body := strings.NewReader(`{"postal_code":"307506","address":"10 Sinaran Drive","country":"SINGAPORE"}`)
	req := httptest.NewRequest(http.MethodPost, "/geocode", body)
	rec := httptest.NewRecorder()
	app.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got geocodeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "postal_code", got.Method)
	require.NotNil(t, got.Latitude)
	assert.Equal(t, 1.32, *got.Latitude)
}

func TestHandleGeocodeRejectsEmptyRequest(t *testing.T) {
	app, _ := testApp(t)
	req := httptest.NewRequest(http.MethodPost, "/geocode", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	app.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleDownloadChecksJobPrefix(t *testing.T) {
	app, _ := testApp(t)
	rec := httptest.NewRecorder()
	app.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download/job1/otherjob_file.xlsx", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandleDownloadMissingFile(t *testing.T) {
	app, _ := testApp(t)
	rec := httptest.NewRecorder()
	app.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download/job1/job1_gone.xlsx", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleUpload(t *testing.T) {
	app, _ := testApp(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "panel.xlsx")
	require.NoError(t, err)
	_, err = part.Write(panelWorkbookBytes(t))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	app.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var job models.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	assert.Equal(t, models.JobStatusCompleted, job.Status)
	assert.Equal(t, 1, job.TotalRecords)
	require.Len(t, job.OutputFiles, 1)

	// The response reports geocoding outcomes per file and overall.
	assert.Equal(t, 100.0, job.SummaryStats.SuccessRate)
	assert.Equal(t, 1, job.SummaryStats.SuccessfulGeocodes)
	assert.Equal(t, 1, job.OutputFiles[0].GeocodingStats.ViaPostal)

	// The produced output is downloadable through the URL the response
	// advertises.
	require.Equal(t, "/download/"+job.ID+"/"+job.OutputFiles[0].Filename,
		job.OutputFiles[0].DownloadURL)
	rec = httptest.NewRecorder()
	app.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		job.OutputFiles[0].DownloadURL, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "transformed_GP_Panel.xlsx")
}

func TestHandleUploadRejectsLegacyXLS(t *testing.T) {
	app, _ := testApp(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "panel.xls")
	require.NoError(t, err)
	_, err = part.Write([]byte("legacy OLE container"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	app.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "save the file as .xlsx")
}

func TestHandleUploadRejectsWrongExtension(t *testing.T) {
	app, _ := testApp(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "panel.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("not a workbook"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	app.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func panelWorkbookBytes(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "GP Panel"
	require.NoError(t, f.SetSheetName("Sheet1", sheet))
	rows := [][]interface{}{
		{"S/N", "Region", "Area", "Clinic ID", "Clinic Name", "Address", "Tel No."},
		{1, "CENTRAL", "NOVENA", "C001", "Novena Clinic", "10 Sinaran Drive Singapore 307506", "63331234"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "panel.xlsx")
	require.NoError(t, f.SaveAs(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}
