package transform

import (
	"strings"

	"panelnorm/domain/panel"
)

// The merged multi-row header layout: one insurer template merges header
// cells across two rows (day ranges on the first row, AM/PM sub-headers or
// day names on the second) and only starts data on the third. The adapter
// detects it, broadcasts merged values so every covered cell reads as
// populated, rebuilds a flat header row, and drops legend/footnote rows.
// The result feeds the standard header-locator/column-mapper path.

// headerRegionCols bounds the column range a header merge is expected in.
const headerRegionCols = 12

var dayRangeTokens = []string{"mon - fri", "mon-fri", "sat", "sun", "public holiday"}

var legendMarkers = []string{"legend", "note:", "nil", "^", "*"}

// IsMergedHeaderSheet reports whether a sheet uses the merged multi-row
// header layout. Three signals must all be present: a merged range in the
// header region, a postal token in the first row, and a day-range token in
// the second row.
func IsMergedHeaderSheet(sheet *panel.RawSheet) bool {
	if len(sheet.Rows) < 3 {
		return false
	}
	merged := false
	for _, m := range sheet.Merges {
		if m.StartRow == 0 && m.StartCol < headerRegionCols && (m.EndCol > m.StartCol || m.EndRow > m.StartRow) {
			merged = true
			break
		}
	}
	if !merged {
		return false
	}
	row0, _ := rowProfile(sheet.Rows[0])
	if !strings.Contains(row0, "postal") {
		return false
	}
	row1, _ := rowProfile(sheet.Rows[1])
	return containsAny(row1, dayRangeTokens)
}

// AdaptMergedHeader flattens a merged-header sheet into the normal
// row/column shape. Sheets that do not show the layout pass through
// unchanged.
func AdaptMergedHeader(sheet *panel.RawSheet) *panel.RawSheet {
	if !IsMergedHeaderSheet(sheet) {
		return sheet
	}

	rows := broadcastMerges(sheet)

	// Flat header: first-row values, except where the second row carries a
	// day sub-header (the four hours columns).
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	header := make([]string, width)
	for col := 0; col < width; col++ {
		top := cellAt(rows[0], col)
		sub := cellAt(rows[1], col)
		header[col] = top
		if sub != "" && containsAny(strings.ToLower(sub), dayRangeTokens) {
			header[col] = sub
		}
	}

	flat := [][]string{header}
	for _, row := range rows[2:] {
		if isLegendRow(row) {
			continue
		}
		flat = append(flat, row)
	}

	return &panel.RawSheet{
		Workbook: sheet.Workbook,
		Name:     sheet.Name,
		Rows:     flat,
	}
}

// broadcastMerges copies every merged range's top-left value into each cell
// the merge covers, so row-by-row reads see a value everywhere. The input
// sheet is not mutated.
func broadcastMerges(sheet *panel.RawSheet) [][]string {
	rows := make([][]string, len(sheet.Rows))
	for i, r := range sheet.Rows {
		rows[i] = append([]string(nil), r...)
	}
	for _, m := range sheet.Merges {
		for r := m.StartRow; r <= m.EndRow && r < len(rows); r++ {
			for len(rows[r]) <= m.EndCol {
				rows[r] = append(rows[r], "")
			}
			for c := m.StartCol; c <= m.EndCol; c++ {
				if strings.TrimSpace(rows[r][c]) == "" {
					rows[r][c] = m.Value
				}
			}
		}
	}
	return rows
}

// isLegendRow drops post-data legend/footnote rows: the zone/category cell
// (first two columns) starts with a known marker.
func isLegendRow(row []string) bool {
	for col := 0; col < 2; col++ {
		v := strings.ToLower(strings.TrimSpace(cellAt(row, col)))
		if v == "" {
			continue
		}
		for _, marker := range legendMarkers {
			if strings.HasPrefix(v, marker) {
				return true
			}
		}
	}
	return false
}
