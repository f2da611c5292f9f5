package transform

import (
	"context"
	"fmt"
	"sort"

	"panelnorm/domain/panel"
	"panelnorm/internal"
	"panelnorm/internal/errors"
	"panelnorm/internal/geocode"
	"panelnorm/ports"
)

// Pipeline runs the full per-workbook transformation: classify sheets,
// build the termination set, then for each panel sheet adapt format,
// locate the header, map columns, filter terminated rows, normalize
// fields, geocode, and split by country. Processing is sequential per
// workbook; the termination set must exist before any panel sheet is
// filtered.
type Pipeline struct {
	lookup  geocode.LookupTable
	remote  ports.RemoteGeocoder
	geocode bool
}

// NewPipeline wires the immutable postal lookup table and the remote
// geocoder into a pipeline. Either may be nil; geocodingEnabled false
// skips coordinate resolution entirely.
func NewPipeline(lookup geocode.LookupTable, remote ports.RemoteGeocoder, geocodingEnabled bool) *Pipeline {
	return &Pipeline{lookup: lookup, remote: remote, geocode: geocodingEnabled}
}

// TransformWorkbook processes every panel sheet of one workbook. The first
// panel sheet that cannot yield a clinic-name mapping fails the whole
// workbook (fail-fast); per-field normalization problems degrade to
// documented defaults instead.
func (p *Pipeline) TransformWorkbook(ctx context.Context, src ports.WorkbookSource) (*panel.WorkbookResult, error) {
	names := src.SheetNames()
	panelSheets, terminationSheets := ClassifySheets(names)
	internal.DefaultLogger.Info("classified %d panel sheets %v, %d termination sheets %v",
		len(panelSheets), panelSheets, len(terminationSheets), terminationSheets)

	if len(panelSheets) == 0 {
		return nil, errors.New("NO_PANEL_SHEETS",
			"no panel sheets found; expected sheet names containing GP, TCM, dental, clinic or panel")
	}

	terminated := BuildTerminationSet(src, terminationSheets)

	result := &panel.WorkbookResult{
		TerminatedCodes: sortedCodes(terminated),
	}
	result.TerminatedCount = len(result.TerminatedCodes)

	for _, name := range panelSheets {
		sheetResult, err := p.transformSheet(ctx, src, name, terminated)
		if err != nil {
			return nil, errors.Wrapf(err, "sheet %q failed", name)
		}
		result.Sheets = append(result.Sheets, sheetResult)
	}
	return result, nil
}

func (p *Pipeline) transformSheet(ctx context.Context, src ports.WorkbookSource, name string, terminated panel.TerminationSet) (panel.SheetResult, error) {
	sheet, err := src.Sheet(name)
	if err != nil {
		return panel.SheetResult{}, errors.WithCode(errors.CodeWorkbookError, err)
	}
	sheet = AdaptMergedHeader(sheet)

	headerIdx := FindHeaderRow(sheet.Rows)
	if headerIdx >= len(sheet.Rows) {
		return panel.SheetResult{}, errors.StructuralError("sheet has no rows past the header position")
	}
	labels := sheet.Rows[headerIdx]
	hm := MapColumns(labels)
	if !hm.Has(panel.FieldClinicName) {
		// Headers may actually be data; fall back to positional inference.
		if inferred := InferColumnsFromData(labels); inferred != nil {
			for key, col := range inferred {
				if !hm.Has(key) && !hm.Claimed(col) {
					hm[key] = col
				}
			}
			internal.DefaultLogger.Info("sheet %q: positional column inference applied", name)
			// The label row was data; re-read it as the first data row.
			headerIdx--
		}
	}
	if !hm.Has(panel.FieldClinicName) {
		return panel.SheetResult{}, errors.StructuralError("missing required clinic name column after inference attempt")
	}

	svc := p.newService()
	res := panel.SheetResult{SheetName: name, HeaderRow: headerIdx}

	// AUTO IDs number the surviving records consecutively, so blank and
	// terminated rows never leave gaps in the sequence.
	emitted := 0
	for _, row := range sheet.Rows[headerIdx+1:] {
		name := cleanCell(cellAt(row, hm[panel.FieldClinicName]))
		if name == "" {
			continue
		}

		code := ""
		if col, ok := hm.Col(panel.FieldClinicID); ok {
			code = panel.NormalizeCode(cellAt(row, col))
		}
		if code == "" {
			code = AutoClinicID(emitted, name)
		}

		address := ConstructAddress(row, hm)
		country := InferCountry(address)
		postal := ""
		if col, ok := hm.Col(panel.FieldPostalCode); ok {
			postal = panel.NormalizeCode(cellAt(row, col))
		}
		if postal == "" {
			postal = ExtractPostalCode(address, country)
		}

		if terminated.Matches(code, postal) {
			res.RowsFiltered++
			continue
		}

		rec := p.buildRecord(ctx, svc, row, hm, code, name, address, postal, country)
		res.Records = append(res.Records, rec)
		emitted++
	}

	if res.RowsFiltered > 0 {
		internal.DefaultLogger.Info("sheet %q: filtered %d terminated entries", name, res.RowsFiltered)
	}

	res.Stats = panel.ComputeStats(res.Records)
	res.ByCountry = splitByCountry(res.Records)
	return res, nil
}

func (p *Pipeline) newService() *geocode.Service {
	if !p.geocode {
		return nil
	}
	return geocode.New(p.lookup, p.remote)
}

func (p *Pipeline) buildRecord(ctx context.Context, svc *geocode.Service, row []string, hm panel.HeaderMap, code, name, address, postal string, country panel.Country) panel.Record {
	rec := panel.Record{
		Code:       code,
		Name:       name,
		Specialty:  mappedCell(row, hm, panel.FieldSpecialty),
		Doctor:     mappedCell(row, hm, panel.FieldDoctorName),
		Address1:   address,
		PostalCode: postal,
		Country:    country,
	}

	zone := mappedCell(row, hm, panel.FieldRegion)
	area := mappedCell(row, hm, panel.FieldArea)
	switch {
	case zone == "" && area != "":
		zone = fallbackZoneArea(area)
	case area == "" && zone != "":
		area = fallbackZoneArea(zone)
	}
	rec.Zone, rec.Area = zone, area

	if hm.Has(panel.FieldTelephone) {
		rec.PhoneNumber = CombinePhoneRemarks(
			mappedCell(row, hm, panel.FieldTelephone),
			mappedCell(row, hm, panel.FieldRemarks))
	}

	remarks := mappedCell(row, hm, panel.FieldRemarks)
	rec.MonToFri = CombineHours(row, hm, DayWeekday, remarks)
	rec.Saturday = CombineHours(row, hm, DaySaturday, remarks)
	rec.Sunday = CombineHours(row, hm, DaySunday, remarks)
	rec.PublicHoliday = CombineHours(row, hm, DayHoliday, remarks)

	rec.GeocodeMethod = panel.GeocodeFailed
	if svc != nil {
		rec.Latitude, rec.Longitude, rec.GeocodeMethod = svc.Geocode(ctx, postal, address, country)
	}
	if rec.Latitude != nil && rec.Longitude != nil {
		rec.GoogleMapURL = fmt.Sprintf("https://maps.google.com/?q=%v,%v", *rec.Latitude, *rec.Longitude)
	}
	return rec
}

func mappedCell(row []string, hm panel.HeaderMap, key panel.FieldKey) string {
	col, ok := hm.Col(key)
	if !ok {
		return ""
	}
	return cleanCell(cellAt(row, col))
}

// splitByCountry groups records per country; nil unless the sheet yielded
// more than one.
func splitByCountry(records []panel.Record) map[panel.Country][]panel.Record {
	groups := make(map[panel.Country][]panel.Record)
	for _, r := range records {
		groups[r.Country] = append(groups[r.Country], r)
	}
	if len(groups) <= 1 {
		return nil
	}
	return groups
}

func sortedCodes(set panel.TerminationSet) []string {
	codes := set.Codes()
	sort.Strings(codes)
	return codes
}
