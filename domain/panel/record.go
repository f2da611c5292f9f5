package panel

// Country is the country a provider entry was resolved to.
type Country string

const (
	CountrySingapore Country = "SINGAPORE"
	CountryMalaysia  Country = "MALAYSIA"
)

// GeocodeMethod records which geocoding tier produced a record's coordinates.
type GeocodeMethod string

const (
	GeocodeByPostal  GeocodeMethod = "postal_code"
	GeocodeByAddress GeocodeMethod = "address"
	GeocodeFailed    GeocodeMethod = "failed"
)

// Record is one normalized provider entry in the canonical output schema.
// Records are built once per surviving source row and never mutated after
// geocoding.
type Record struct {
	Code          string
	Name          string
	Zone          string
	Area          string
	Specialty     string
	Doctor        string
	Address1      string
	Address2      string
	Address3      string
	PostalCode    string
	Country       Country
	PhoneNumber   string
	MonToFri      string
	Saturday      string
	Sunday        string
	PublicHoliday string
	Latitude      *float64
	Longitude     *float64
	GeocodeMethod GeocodeMethod
	GoogleMapURL  string
}

// ColumnOrder is the fixed column layout of the canonical output table.
var ColumnOrder = []string{
	"Code", "Name", "Zone", "Area", "Specialty", "Doctor",
	"Address1", "Address2", "Address3", "PostalCode", "Country",
	"PhoneNumber", "MonToFri", "Saturday", "Sunday", "PublicHoliday",
	"Latitude", "Longitude", "GoogleMapURL",
}

// SheetStats summarizes geocoding outcomes for one transformed sheet.
type SheetStats struct {
	Total     int `json:"total_records"`
	Geocoded  int `json:"successful_geocodes"`
	ViaPostal int `json:"postal_code_matches"`
	ViaAPI    int `json:"address_geocodes"`
	Failed    int `json:"failed_geocodes"`
}

// ComputeStats tallies geocoding outcomes over a set of records.
func ComputeStats(records []Record) SheetStats {
	stats := SheetStats{Total: len(records)}
	for _, r := range records {
		switch r.GeocodeMethod {
		case GeocodeByPostal:
			stats.ViaPostal++
			stats.Geocoded++
		case GeocodeByAddress:
			stats.ViaAPI++
			stats.Geocoded++
		default:
			stats.Failed++
		}
	}
	return stats
}

// SheetResult is the outcome of transforming a single panel sheet.
// ByCountry is populated only when the sheet yielded more than one country.
type SheetResult struct {
	SheetName    string
	Records      []Record
	ByCountry    map[Country][]Record
	Stats        SheetStats
	HeaderRow    int
	RowsFiltered int
}

// WorkbookResult is the outcome of transforming a whole workbook.
type WorkbookResult struct {
	Sheets          []SheetResult
	TerminatedCount int
	TerminatedCodes []string
}
