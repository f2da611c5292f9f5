package panel

import "strings"

// RawSheet is one worksheet read with zero schema assumptions: an ordered
// sequence of rows of formatted cell text, plus any merged ranges the
// container declared. Empty cells are empty strings.
type RawSheet struct {
	Workbook string
	Name     string
	Rows     [][]string
	Merges   []MergeRegion
}

// MergeRegion is a merged cell range in 0-based row/column coordinates,
// inclusive on both ends. Value is the top-left cell's value.
type MergeRegion struct {
	StartRow, StartCol int
	EndRow, EndCol     int
	Value              string
}

// Cell returns the trimmed value at (row, col), or "" when the coordinate
// falls outside the sheet. Ragged rows are common in real exports, so all
// row access goes through here.
func (s *RawSheet) Cell(row, col int) string {
	if row < 0 || row >= len(s.Rows) {
		return ""
	}
	r := s.Rows[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[col])
}

// FieldKey is a canonical schema field that header columns resolve to.
type FieldKey string

const (
	FieldClinicID   FieldKey = "clinic_id"
	FieldClinicName FieldKey = "clinic_name"
	FieldRegion     FieldKey = "region"
	FieldArea       FieldKey = "area"
	FieldAddress    FieldKey = "address"
	FieldTelephone  FieldKey = "telephone"
	FieldRemarks    FieldKey = "remarks"
	FieldSpecialty  FieldKey = "specialty"
	FieldDoctorName FieldKey = "doctor_name"
	FieldPostalCode FieldKey = "postal_code"

	FieldMonFriAM      FieldKey = "mon_fri_am"
	FieldMonFriPM      FieldKey = "mon_fri_pm"
	FieldMonFriNight   FieldKey = "mon_fri_night"
	FieldSatAM         FieldKey = "sat_am"
	FieldSatPM         FieldKey = "sat_pm"
	FieldSatNight      FieldKey = "sat_night"
	FieldSatSimple     FieldKey = "sat_simple"
	FieldSunAM         FieldKey = "sun_am"
	FieldSunPM         FieldKey = "sun_pm"
	FieldSunNight      FieldKey = "sun_night"
	FieldSunSimple     FieldKey = "sun_simple"
	FieldHolidayAM     FieldKey = "holiday_am"
	FieldHolidayPM     FieldKey = "holiday_pm"
	FieldHolidayNight  FieldKey = "holiday_night"
	FieldHolidaySimple FieldKey = "holiday_simple"

	FieldAddressBlk      FieldKey = "address_blk"
	FieldAddressRoad     FieldKey = "address_road"
	FieldAddressUnit     FieldKey = "address_unit"
	FieldAddressBuilding FieldKey = "address_building"
)

// HeaderMap resolves canonical field keys to 0-based column indexes in one
// sheet. A column is claimed by at most one key; first match wins across
// mapping phases.
type HeaderMap map[FieldKey]int

// Col returns the column index for key and whether the key resolved.
func (m HeaderMap) Col(key FieldKey) (int, bool) {
	c, ok := m[key]
	return c, ok
}

// Has reports whether key resolved to a column.
func (m HeaderMap) Has(key FieldKey) bool {
	_, ok := m[key]
	return ok
}

// Claimed reports whether any key already resolved to column col.
func (m HeaderMap) Claimed(col int) bool {
	for _, c := range m {
		if c == col {
			return true
		}
	}
	return false
}
