package jobs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"panelnorm/internal/geocode"
	"panelnorm/internal/transform"
	"panelnorm/models"
)

func writePanelWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "GP Panel"
	require.NoError(t, f.SetSheetName("Sheet1", sheet))
	rows := [][]interface{}{
		{"ACME INSURANCE"},
		{},
		{"S/N", "Region", "Area", "Clinic ID", "Clinic Name", "Address", "Tel No."},
		{1, "CENTRAL", "NOVENA", "C001", "Novena Clinic", "10 Sinaran Drive Singapore 307506", "63331234"},
		{2, "EAST", "BEDOK", "C002", "Bedok Clinic", "Blk 123 Bedok North Road Singapore 460123", "64441234"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "upload.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestManagerProcess(t *testing.T) {
	outDir := t.TempDir()
	repo := NewMemoryStore()
	// One of the two postal codes resolves locally, so the job reports a
	// 50% geocoding success rate.
	lookup := geocode.LookupTable{"307506": {Lat: 1.32, Lng: 103.84}}
	manager := NewManager(outDir, transform.NewPipeline(lookup, nil, true), repo)

	job, err := manager.Process(context.Background(), writePanelWorkbook(t), "upload.xlsx")
	require.NoError(t, err)

	assert.Equal(t, models.JobStatusCompleted, job.Status)
	assert.Equal(t, "upload.xlsx", job.SourceName)
	assert.Equal(t, 1, job.SheetsProcessed)
	assert.Equal(t, 2, job.TotalRecords)
	require.Len(t, job.OutputFiles, 1)

	assert.Equal(t, 2, job.SummaryStats.TotalRecords)
	assert.Equal(t, 1, job.SummaryStats.SuccessfulGeocodes)
	assert.Equal(t, 1, job.SummaryStats.FailedGeocodes)
	assert.Equal(t, 50.0, job.SummaryStats.SuccessRate)

	out := job.OutputFiles[0]
	assert.Equal(t, job.ID+"_GP_Panel.xlsx", out.Filename)
	assert.Equal(t, "GP Panel", out.SheetName)
	assert.Equal(t, 2, out.Records)
	assert.Equal(t, "/download/"+job.ID+"/"+out.Filename, out.DownloadURL)
	assert.Equal(t, 2, out.GeocodingStats.Total)
	assert.Equal(t, 1, out.GeocodingStats.ViaPostal)
	assert.Equal(t, 1, out.GeocodingStats.Failed)

	_, err = os.Stat(filepath.Join(outDir, out.Filename))
	assert.NoError(t, err)

	saved, err := repo.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, saved.ID)
	assert.Equal(t, 50.0, saved.SummaryStats.SuccessRate)
}

func TestManagerProcessFailureSavesFailedJob(t *testing.T) {
	repo := NewMemoryStore()
	manager := NewManager(t.TempDir(), transform.NewPipeline(nil, nil, false), repo)

	missing := filepath.Join(t.TempDir(), "nope.xlsx")
	_, err := manager.Process(context.Background(), missing, "nope.xlsx")
	assert.Error(t, err)
}
