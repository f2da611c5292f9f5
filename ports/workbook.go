package ports

import "panelnorm/domain/panel"

// WorkbookSource is a handle to an opened multi-sheet workbook. The
// transformation pipeline consumes sheets one at a time through it and
// never touches the underlying container directly.
type WorkbookSource interface {
	// SheetNames returns the worksheet names in workbook order.
	SheetNames() []string
	// Sheet reads one worksheet into its raw row/column form.
	Sheet(name string) (*panel.RawSheet, error)
}
