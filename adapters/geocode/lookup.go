package geocode

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"panelnorm/domain/panel"
	"panelnorm/internal"
	igeocode "panelnorm/internal/geocode"

	"github.com/xuri/excelize/v2"
)

// maxLookupFileSize guards against accidentally loading an unrelated huge
// file from one of the candidate paths.
const maxLookupFileSize = 50 * 1024 * 1024

// Recognized header labels in the postal master reference dataset.
var (
	postalLabels = []string{"postalcode", "postal code", "postal_code", "postal", "zip"}
	latLabels    = []string{"latitude", "lat"}
	lngLabels    = []string{"longitude", "lng", "lon", "long"}
)

// LoadLookupTable builds the postal-code coordinate table from the first
// usable candidate path. Absence of every candidate is not an error: the
// geocoding service degrades to remote-only mode with an empty table.
// The returned table is never mutated after this call.
func LoadLookupTable(candidates []string) igeocode.LookupTable {
	path := firstUsablePath(candidates)
	if path == "" {
		internal.DefaultLogger.Warn("postal lookup: no reference dataset found, remote geocoding only")
		return igeocode.LookupTable{}
	}
	table, err := loadFrom(path)
	if err != nil {
		internal.DefaultLogger.Warn("postal lookup: failed to load %s: %v", path, err)
		return igeocode.LookupTable{}
	}
	internal.DefaultLogger.Info("postal lookup: %d postal codes loaded from %s", len(table), path)
	return table
}

func firstUsablePath(candidates []string) string {
	for _, path := range candidates {
		if path == "" {
			continue
		}
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		if info.Size() > maxLookupFileSize {
			internal.DefaultLogger.Warn("postal lookup: %s too large (%.1fMB), skipping",
				path, float64(info.Size())/1024/1024)
			continue
		}
		return path
	}
	return ""
}

func loadFrom(path string) (igeocode.LookupTable, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return loadCSV(path)
	}
	return loadXLSX(path)
}

func loadCSV(path string) (igeocode.LookupTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return buildTable(rows), nil
}

func loadXLSX(path string) (igeocode.LookupTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, err
	}
	return buildTable(rows), nil
}

// buildTable scans header labels for the postal/latitude/longitude
// columns, then loads every row with a valid postal code and coordinate
// pair, skipping the rest.
func buildTable(rows [][]string) igeocode.LookupTable {
	table := igeocode.LookupTable{}
	if len(rows) < 2 {
		return table
	}
	postalCol := findColumn(rows[0], postalLabels)
	latCol := findColumn(rows[0], latLabels)
	lngCol := findColumn(rows[0], lngLabels)
	if postalCol < 0 || latCol < 0 || lngCol < 0 {
		internal.DefaultLogger.Warn("postal lookup: reference dataset missing postal/latitude/longitude columns")
		return table
	}

	for _, row := range rows[1:] {
		postal := igeocode.NormalizePostal(cell(row, postalCol), panel.CountrySingapore)
		if postal == "" {
			continue
		}
		lat, err1 := strconv.ParseFloat(cell(row, latCol), 64)
		lng, err2 := strconv.ParseFloat(cell(row, lngCol), 64)
		if err1 != nil || err2 != nil {
			continue
		}
		table[postal] = igeocode.Coordinate{Lat: lat, Lng: lng}
	}
	return table
}

func findColumn(header []string, labels []string) int {
	for col, h := range header {
		normalized := strings.ToLower(strings.TrimSpace(h))
		for _, l := range labels {
			if normalized == l {
				return col
			}
		}
	}
	return -1
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}
