package excel

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"panelnorm/domain/panel"
	"panelnorm/internal"

	"github.com/xuri/excelize/v2"
)

// Workbook wraps an opened xlsx container and exposes it as a
// ports.WorkbookSource: named sheets read one at a time into raw
// row/column form, merged ranges included.
type Workbook struct {
	file *excelize.File
	path string
}

// OpenWorkbook opens an Excel workbook for reading.
func OpenWorkbook(path string) (*Workbook, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("workbook not found: %s", path)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	return &Workbook{file: f, path: path}, nil
}

// Close releases the underlying file.
func (w *Workbook) Close() error {
	return w.file.Close()
}

// SheetNames returns the worksheet names in workbook order.
func (w *Workbook) SheetNames() []string {
	return w.file.GetSheetList()
}

// Sheet reads one worksheet. Merged-range metadata that cannot be parsed
// is skipped rather than failing the read; real exports carry malformed
// merge records surprisingly often and the data rows are still usable
// without them.
func (w *Workbook) Sheet(name string) (*panel.RawSheet, error) {
	rows, err := w.file.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
	}
	for i, row := range rows {
		for j, cell := range row {
			rows[i][j] = strings.TrimSpace(cell)
		}
	}
	return &panel.RawSheet{
		Workbook: filepath.Base(w.path),
		Name:     name,
		Rows:     rows,
		Merges:   w.mergeRegions(name),
	}, nil
}

func (w *Workbook) mergeRegions(sheet string) []panel.MergeRegion {
	cells, err := w.file.GetMergeCells(sheet)
	if err != nil {
		internal.DefaultLogger.Warn("sheet %q: merge metadata unreadable, continuing without: %v", sheet, err)
		return nil
	}
	var regions []panel.MergeRegion
	for _, mc := range cells {
		startCol, startRow, err1 := excelize.CellNameToCoordinates(mc.GetStartAxis())
		endCol, endRow, err2 := excelize.CellNameToCoordinates(mc.GetEndAxis())
		if err1 != nil || err2 != nil {
			internal.DefaultLogger.Warn("sheet %q: skipping malformed merge range %s:%s", sheet, mc.GetStartAxis(), mc.GetEndAxis())
			continue
		}
		regions = append(regions, panel.MergeRegion{
			StartRow: startRow - 1,
			StartCol: startCol - 1,
			EndRow:   endRow - 1,
			EndCol:   endCol - 1,
			Value:    strings.TrimSpace(mc.GetCellValue()),
		})
	}
	return regions
}
