package models

import (
	"time"

	"panelnorm/domain/panel"
)

// Job is the bookkeeping record for one uploaded workbook transformation.
type Job struct {
	ID              string       `db:"id" json:"job_id"`
	SourceName      string       `db:"source_name" json:"source_name"`
	Status          string       `db:"status" json:"status"`
	SheetsProcessed int          `db:"sheets_processed" json:"sheets_processed"`
	TotalRecords    int          `db:"total_records" json:"total_records"`
	TerminatedCount int          `db:"terminated_count" json:"terminated_clinics_filtered"`
	SummaryStats    SummaryStats `db:"-" json:"summary_stats"`
	OutputFiles     []OutputFile `db:"-" json:"output_files"`
	CreatedAt       time.Time    `db:"created_at" json:"created_at"`
}

// SummaryStats aggregates geocoding outcomes across every sheet of a job.
// SuccessRate is a percentage rounded to one decimal place.
type SummaryStats struct {
	TotalRecords       int     `json:"total_records"`
	SuccessfulGeocodes int     `json:"successful_geocodes"`
	FailedGeocodes     int     `json:"failed_geocodes"`
	SuccessRate        float64 `json:"geocoding_success_rate"`
}

// OutputFile is one output workbook produced by a job, with the geocoding
// breakdown for the records it contains and the path it is served from.
type OutputFile struct {
	Filename       string           `json:"filename"`
	SheetName      string           `json:"sheet_name"`
	Records        int              `json:"records_processed"`
	GeocodingStats panel.SheetStats `json:"geocoding_stats"`
	DownloadURL    string           `json:"download_url"`
}

const (
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)
