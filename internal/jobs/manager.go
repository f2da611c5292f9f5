package jobs

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"

	"panelnorm/adapters/excel"
	"panelnorm/domain/panel"
	"panelnorm/internal"
	"panelnorm/internal/errors"
	"panelnorm/internal/transform"
	"panelnorm/models"
	"panelnorm/ports"
)

// maxOutputWriters bounds concurrent output workbook writes per job.
const maxOutputWriters = 4

// Manager runs one transformation job end to end: open the uploaded
// workbook, run the pipeline, write each sheet's output workbook, and
// record the job for later status and download lookups.
type Manager struct {
	processedDir string
	pipeline     *transform.Pipeline
	repo         ports.JobRepository
}

// NewManager wires the pipeline and job repository into a manager that
// writes outputs under processedDir.
func NewManager(processedDir string, pipeline *transform.Pipeline, repo ports.JobRepository) *Manager {
	return &Manager{processedDir: processedDir, pipeline: pipeline, repo: repo}
}

// Process transforms the uploaded workbook at uploadPath. Every outcome
// is recorded as a job: transformation failures save a failed job and
// return the error so callers can surface it.
func (m *Manager) Process(ctx context.Context, uploadPath, sourceName string) (*models.Job, error) {
	job := &models.Job{
		ID:         uuid.New().String(),
		SourceName: sourceName,
		Status:     models.JobStatusCompleted,
		CreatedAt:  time.Now().UTC(),
	}

	src, err := excel.OpenWorkbook(uploadPath)
	if err != nil {
		return m.fail(ctx, job, err)
	}
	defer src.Close()

	result, err := m.pipeline.TransformWorkbook(ctx, src)
	if err != nil {
		return m.fail(ctx, job, err)
	}

	outputs, err := m.writeOutputs(ctx, job.ID, result)
	if err != nil {
		return m.fail(ctx, job, err)
	}

	job.OutputFiles = outputs
	job.SheetsProcessed = len(result.Sheets)
	job.TerminatedCount = result.TerminatedCount
	job.SummaryStats = summarizeGeocoding(result.Sheets)
	job.TotalRecords = job.SummaryStats.TotalRecords
	logSheetSummary(result.Sheets)

	if err := m.repo.Save(ctx, job); err != nil {
		return nil, errors.Wrap(err, "failed to save job")
	}
	return job, nil
}

func (m *Manager) fail(ctx context.Context, job *models.Job, cause error) (*models.Job, error) {
	job.Status = models.JobStatusFailed
	if err := m.repo.Save(ctx, job); err != nil {
		internal.DefaultLogger.Error("failed to save failed job %s: %v", job.ID, err)
	}
	return nil, cause
}

// writeOutputs writes one workbook per sheet result, or one per country
// when a sheet mixes Singapore and Malaysia entries. Writes run
// concurrently with a bounded writer pool; the first failure cancels the
// rest.
func (m *Manager) writeOutputs(ctx context.Context, jobID string, result *panel.WorkbookResult) ([]models.OutputFile, error) {
	var (
		mu      sync.Mutex
		outputs []models.OutputFile
	)

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(maxOutputWriters)

	write := func(filename, sheetName string, records []panel.Record) {
		g.Go(func() error {
			path := filepath.Join(m.processedDir, filename)
			if err := excel.WriteRecords(path, records); err != nil {
				return errors.Wrapf(err, "failed to write %s", filename)
			}
			mu.Lock()
			outputs = append(outputs, models.OutputFile{
				Filename:       filename,
				SheetName:      sheetName,
				Records:        len(records),
				GeocodingStats: panel.ComputeStats(records),
				DownloadURL:    fmt.Sprintf("/download/%s/%s", jobID, filename),
			})
			mu.Unlock()
			return nil
		})
	}

	for _, sheet := range result.Sheets {
		base := SanitizeFilename(sheet.SheetName)
		if sheet.ByCountry != nil {
			for country, records := range sheet.ByCountry {
				filename := fmt.Sprintf("%s_%s_%s.xlsx", jobID, base, country)
				write(filename, sheet.SheetName, records)
			}
			continue
		}
		filename := fmt.Sprintf("%s_%s.xlsx", jobID, base)
		write(filename, sheet.SheetName, sheet.Records)
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}

// summarizeGeocoding aggregates per-sheet geocoding outcomes into the
// job-level summary, with the overall success rate as a percentage
// rounded to one decimal place.
func summarizeGeocoding(sheets []panel.SheetResult) models.SummaryStats {
	totals := make([]float64, len(sheets))
	geocoded := make([]float64, len(sheets))
	for i, s := range sheets {
		totals[i] = float64(s.Stats.Total)
		geocoded[i] = float64(s.Stats.Geocoded)
	}
	total, _ := stats.Sum(totals)
	success, _ := stats.Sum(geocoded)

	summary := models.SummaryStats{
		TotalRecords:       int(total),
		SuccessfulGeocodes: int(success),
		FailedGeocodes:     int(total - success),
	}
	if total > 0 {
		rate, _ := stats.Round(success/total*100, 1)
		summary.SuccessRate = rate
	}
	return summary
}

// logSheetSummary logs per-job distribution of records across sheets.
func logSheetSummary(sheets []panel.SheetResult) {
	if len(sheets) == 0 {
		return
	}
	counts := make([]float64, len(sheets))
	for i, s := range sheets {
		counts[i] = float64(s.Stats.Total)
	}
	mean, _ := stats.Mean(counts)
	max, _ := stats.Max(counts)
	internal.DefaultLogger.Info("processed %d sheets: %.1f records/sheet avg, %.0f max",
		len(sheets), mean, max)
}

var unsafeFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// SanitizeFilename makes a sheet name safe for use in output filenames:
// reserved filesystem characters are removed and whitespace runs become
// single underscores.
func SanitizeFilename(name string) string {
	clean := unsafeFilenameChars.ReplaceAllString(name, "")
	clean = strings.Join(strings.Fields(clean), "_")
	if clean == "" {
		return "sheet"
	}
	return clean
}
