package transform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"panelnorm/domain/panel"
	"panelnorm/internal/geocode"
)

// recordingGeocoder counts remote calls and returns a fixed coordinate.
type recordingGeocoder struct {
	calls int
	found bool
}

func (g *recordingGeocoder) Geocode(_ context.Context, _, _ string) (float64, float64, bool, error) {
	g.calls++
	if !g.found {
		return 0, 0, false, nil
	}
	return 1.3521, 103.8198, true, nil
}

func panelSheet() *panel.RawSheet {
	return &panel.RawSheet{
		Name: "GP Panel",
		Rows: [][]string{
			{"ACME INSURANCE"},
			{""},
			{"S/N", "Region", "Area", "Clinic ID", "Clinic Name", "Address", "Tel No.", "Mon - Fri (AM)", "Mon - Fri (PM)"},
			{"1", "CENTRAL", "NOVENA", "C001", "Novena Clinic", "10 Sinaran Drive Singapore 307506", "63331234", "0900-1200", ""},
			{"2", "EAST", "BEDOK", "C002", "Bedok Clinic", "Blk 123 Bedok North Road Singapore 460123", "64441234", "0830-1230", "1400-1700"},
			{"3", "", "", "", "", "", "", "", ""},
			{"4", "CENTRAL", "NOVENA", "C099", "Terminated Clinic", "1 Somewhere Singapore 111111", "60001234", "", ""},
		},
	}
}

func testPipeline(remote *recordingGeocoder) *Pipeline {
	lookup := geocode.LookupTable{
		"307506": {Lat: 1.32, Lng: 103.84},
		"460123": {Lat: 1.33, Lng: 103.93},
	}
	return NewPipeline(lookup, remote, true)
}

func TestTransformWorkbook(t *testing.T) {
	termination := &panel.RawSheet{
		Name: "Terminated Clinics",
		Rows: [][]string{
			{"Clinic ID", "Postal Code"},
			{"C099", "111111"},
		},
	}
	wb := newStubWorkbook(panelSheet(), termination)
	remote := &recordingGeocoder{}

	result, err := testPipeline(remote).TransformWorkbook(context.Background(), wb)
	require.NoError(t, err)
	require.Len(t, result.Sheets, 1)

	sheet := result.Sheets[0]
	assert.Equal(t, "GP Panel", sheet.SheetName)
	assert.Equal(t, 2, sheet.HeaderRow)
	require.Len(t, sheet.Records, 2)
	assert.Equal(t, 1, sheet.RowsFiltered)
	assert.Equal(t, []string{"C099"}, result.TerminatedCodes)
	assert.Equal(t, 1, result.TerminatedCount)

	first := sheet.Records[0]
	assert.Equal(t, "C001", first.Code)
	assert.Equal(t, "Novena Clinic", first.Name)
	assert.Equal(t, "CENTRAL", first.Zone)
	assert.Equal(t, "NOVENA", first.Area)
	assert.Equal(t, "307506", first.PostalCode)
	assert.Equal(t, panel.CountrySingapore, first.Country)
	assert.Equal(t, "0900-1200/CLOSED/CLOSED", first.MonToFri)
	assert.Equal(t, "CLOSED", first.Saturday)

	// Both postal codes hit the lookup table; the remote tier stays idle.
	assert.Equal(t, panel.GeocodeByPostal, first.GeocodeMethod)
	require.NotNil(t, first.Latitude)
	assert.Equal(t, "https://maps.google.com/?q=1.32,103.84", first.GoogleMapURL)
	assert.Equal(t, 0, remote.calls)

	assert.Equal(t, 2, sheet.Stats.Total)
	assert.Equal(t, 2, sheet.Stats.Geocoded)
	assert.Equal(t, 2, sheet.Stats.ViaPostal)
	assert.Equal(t, 0, sheet.Stats.Failed)
}

func TestTransformWorkbookBlankNameRowsSkipped(t *testing.T) {
	wb := newStubWorkbook(panelSheet())
	result, err := testPipeline(&recordingGeocoder{}).TransformWorkbook(context.Background(), wb)
	require.NoError(t, err)

	for _, rec := range result.Sheets[0].Records {
		assert.NotEmpty(t, rec.Name)
	}
}

func TestTransformWorkbookNoPanelSheets(t *testing.T) {
	wb := newStubWorkbook(&panel.RawSheet{Name: "Cover Page", Rows: [][]string{{"x"}}})
	_, err := testPipeline(&recordingGeocoder{}).TransformWorkbook(context.Background(), wb)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no panel sheets")
}

func TestTransformWorkbookFailFast(t *testing.T) {
	broken := &panel.RawSheet{
		Name: "Dental Panel",
		Rows: [][]string{
			{"alpha", "beta", "gamma", "delta", "epsilon", "zeta"},
			{"r1", "r2", "r3", "r4", "r5", "r6"},
		},
	}
	wb := newStubWorkbook(panelSheet(), broken)

	_, err := testPipeline(&recordingGeocoder{}).TransformWorkbook(context.Background(), wb)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Dental Panel")
}

func TestTransformWorkbookIdempotent(t *testing.T) {
	p := testPipeline(&recordingGeocoder{})

	first, err := p.TransformWorkbook(context.Background(), newStubWorkbook(panelSheet()))
	require.NoError(t, err)
	second, err := p.TransformWorkbook(context.Background(), newStubWorkbook(panelSheet()))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestTransformWorkbookAutoIDAndFallbacks(t *testing.T) {
	sheet := &panel.RawSheet{
		Name: "TCM Panel",
		Rows: [][]string{
			{"S/N", "Region", "Area", "Clinic Name", "Address", "Clinic ID"},
			{"1", "NORTH", "", "Yishun TCM", "Blk 101 Yishun Ave 5 Singapore 760101", ""},
		},
	}
	wb := newStubWorkbook(sheet)

	result, err := testPipeline(&recordingGeocoder{}).TransformWorkbook(context.Background(), wb)
	require.NoError(t, err)

	rec := result.Sheets[0].Records[0]
	assert.Equal(t, "AUTO_0001_YISHUN_TCM", rec.Code)
	assert.Equal(t, "NORTH", rec.Zone)
	// Missing area borrows the zone value.
	assert.Equal(t, "NORTH", rec.Area)
	assert.Equal(t, "760101", rec.PostalCode)
}

func TestTransformWorkbookAutoIDsStayConsecutive(t *testing.T) {
	sheet := &panel.RawSheet{
		Name: "TCM Panel",
		Rows: [][]string{
			{"S/N", "Region", "Area", "Clinic Name", "Address", "Clinic ID"},
			{"1", "NORTH", "YISHUN", "Yishun TCM", "Blk 101 Yishun Ave 5 Singapore 760101", ""},
			{"2", "", "", "", "", ""},
			{"3", "CENTRAL", "NOVENA", "Closing TCM", "10 Sinaran Drive Singapore 307506", "C050"},
			{"4", "EAST", "BEDOK", "Bedok TCM", "Blk 123 Bedok North Road Singapore 460123", ""},
		},
	}
	termination := &panel.RawSheet{
		Name: "Terminated Clinics",
		Rows: [][]string{
			{"Clinic ID", "Postal Code"},
			{"C050", "307506"},
		},
	}
	wb := newStubWorkbook(sheet, termination)

	result, err := testPipeline(&recordingGeocoder{}).TransformWorkbook(context.Background(), wb)
	require.NoError(t, err)

	// Blank and terminated rows must not leave gaps in the numbering.
	got := result.Sheets[0]
	assert.Equal(t, 1, got.RowsFiltered)
	require.Len(t, got.Records, 2)
	assert.Equal(t, "AUTO_0001_YISHUN_TCM", got.Records[0].Code)
	assert.Equal(t, "AUTO_0002_BEDOK_TCM", got.Records[1].Code)
}

func TestTransformWorkbookGeocodingDisabled(t *testing.T) {
	remote := &recordingGeocoder{found: true}
	p := NewPipeline(nil, remote, false)

	result, err := p.TransformWorkbook(context.Background(), newStubWorkbook(panelSheet()))
	require.NoError(t, err)

	for _, rec := range result.Sheets[0].Records {
		assert.Nil(t, rec.Latitude)
		assert.Equal(t, panel.GeocodeFailed, rec.GeocodeMethod)
		assert.Empty(t, rec.GoogleMapURL)
	}
	assert.Equal(t, 0, remote.calls)
}

func TestTransformWorkbookRemoteFallback(t *testing.T) {
	sheet := &panel.RawSheet{
		Name: "MY Panel",
		Rows: [][]string{
			{"S/N", "Region", "Area", "Clinic ID", "Clinic Name", "Address"},
			{"1", "JOHOR", "SKUDAI", "M001", "Skudai Clinic", "No 5 Jalan Indah, 81300 Skudai, Johor"},
		},
	}
	remote := &recordingGeocoder{found: true}

	result, err := testPipeline(remote).TransformWorkbook(context.Background(), newStubWorkbook(sheet))
	require.NoError(t, err)

	rec := result.Sheets[0].Records[0]
	assert.Equal(t, panel.CountryMalaysia, rec.Country)
	assert.Equal(t, "81300", rec.PostalCode)
	// Malaysian rows bypass the Singapore lookup table entirely.
	assert.Equal(t, 1, remote.calls)
	assert.Equal(t, panel.GeocodeByAddress, rec.GeocodeMethod)
	require.NotNil(t, rec.Latitude)
	assert.Equal(t, 1.3521, *rec.Latitude)
}
