package excel

import (
	"fmt"

	"panelnorm/domain/panel"

	"github.com/xuri/excelize/v2"
)

// WriteRecords writes one canonical record table to a new workbook at
// path, headers bold, columns in the fixed canonical order. Nil
// coordinates become empty cells.
func WriteRecords(path string, records []panel.Record) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	header := make([]interface{}, len(panel.ColumnOrder))
	for i, name := range panel.ColumnOrder {
		header[i] = name
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}
	styleID, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		end, _ := excelize.CoordinatesToCellName(len(header), 1)
		_ = f.SetCellStyle(sheet, "A1", end, styleID)
	}

	for i, rec := range records {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := recordRow(rec)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	return f.SaveAs(path)
}

func recordRow(r panel.Record) []interface{} {
	coord := func(v *float64) interface{} {
		if v == nil {
			return ""
		}
		return *v
	}
	return []interface{}{
		r.Code, r.Name, r.Zone, r.Area, r.Specialty, r.Doctor,
		r.Address1, r.Address2, r.Address3, r.PostalCode, string(r.Country),
		r.PhoneNumber, r.MonToFri, r.Saturday, r.Sunday, r.PublicHoliday,
		coord(r.Latitude), coord(r.Longitude), r.GoogleMapURL,
	}
}
