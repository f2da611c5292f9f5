package transform

import (
	"strings"

	"panelnorm/domain/panel"
	"panelnorm/internal"
	"panelnorm/ports"
)

// BuildTerminationSet reads every termination sheet once and collects
// (code, postal) removal keys shared by all panel sheets of the workbook.
// A sheet that cannot be read or lacks a code column is logged and
// skipped; termination extraction never fails the workbook.
func BuildTerminationSet(src ports.WorkbookSource, terminationSheets []string) panel.TerminationSet {
	set := make(panel.TerminationSet)
	for _, name := range terminationSheets {
		sheet, err := src.Sheet(name)
		if err != nil {
			internal.DefaultLogger.Warn("termination sheet %q unreadable: %v", name, err)
			continue
		}
		added := collectTerminationKeys(sheet, set)
		internal.DefaultLogger.Info("termination sheet %q: %d keys extracted", name, added)
	}
	return set
}

// terminationHeaderScan bounds how deep the header search goes; removal
// lists keep their header in the first few rows.
const terminationHeaderScan = 10

func collectTerminationKeys(sheet *panel.RawSheet, set panel.TerminationSet) int {
	// Termination sheets are too narrow for the panel header locator, so
	// the header is the first row carrying a provider-code label.
	headerIdx, codeCol := -1, -1
	var labels []string
	for idx, row := range sheet.Rows {
		if idx >= terminationHeaderScan {
			break
		}
		normalized := make([]string, len(row))
		for i, l := range row {
			normalized[i] = normalizeLabel(l)
		}
		if col := findTerminationCodeColumn(normalized); col >= 0 {
			headerIdx, codeCol, labels = idx, col, normalized
			break
		}
	}
	if codeCol < 0 {
		internal.DefaultLogger.Warn("termination sheet %q: no provider-code column", sheet.Name)
		return 0
	}
	postalCol := findColumnContaining(labels, "postal")
	addressCol := findColumnContaining(labels, "address")

	added := 0
	for _, row := range sheet.Rows[headerIdx+1:] {
		code := panel.NormalizeCode(cellAt(row, codeCol))
		if code == "" {
			continue
		}
		postal := ""
		if postalCol >= 0 {
			postal = panel.NormalizeCode(cellAt(row, postalCol))
		}
		if postal == "" && addressCol >= 0 {
			// No postal column: recover it from the address, degrading to
			// a code-only key when extraction fails.
			addr := cellAt(row, addressCol)
			postal = ExtractPostalCode(addr, InferCountry(addr))
		}
		set.Add(code, postal)
		added++
	}
	return added
}

// findTerminationCodeColumn searches header labels for the provider-code
// column, in decreasing specificity: clinic+id, provider+code/id, bare
// code.
func findTerminationCodeColumn(labels []string) int {
	for col, l := range labels {
		if strings.Contains(l, "clinic") && strings.Contains(l, "id") {
			return col
		}
	}
	for col, l := range labels {
		if strings.Contains(l, "provider") && (strings.Contains(l, "code") || strings.Contains(l, "id")) {
			return col
		}
	}
	return findColumnContaining(labels, "code")
}

func findColumnContaining(labels []string, token string) int {
	for col, l := range labels {
		if strings.Contains(l, token) {
			return col
		}
	}
	return -1
}
