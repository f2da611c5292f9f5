package transform

import (
	"regexp"
	"strings"

	"panelnorm/domain/panel"
)

// fieldLiterals pairs a canonical field key with the header labels that
// resolve to it, in acceptance order.
type fieldLiterals struct {
	key      panel.FieldKey
	literals []string
}

// columnLiterals is the exact-match table for phase 1. Order matters twice:
// earlier keys claim contested columns first, and earlier literals win
// within a key.
var columnLiterals = []fieldLiterals{
	{panel.FieldClinicID, []string{
		"ihp clinic id", "provider code", "clinic id", "id", "clinic code",
		"provider id", "clinic identifier", "code", "clinic no", "clinic number",
		"sp code", "master code",
	}},
	{panel.FieldClinicName, []string{
		"clinic name", "name", "clinic", "provider name", "facility name",
		"medical center", "medical centre", "center name", "centre name",
	}},
	{panel.FieldRegion, []string{
		"region", "zone", "district", "sector", "territory", "location",
		"geographical region", "geo region", "state", "province",
	}},
	{panel.FieldArea, []string{
		"area", "estate", "neighbourhood", "neighborhood", "locality",
		"precinct", "town", "suburb", "community", "district area",
	}},
	{panel.FieldSpecialty, []string{
		"specialty", "speciality", "discipline", "specialist discipline",
	}},
	{panel.FieldDoctorName, []string{
		"doctor name", "doctor", "dr name", "physician", "specialist name",
	}},
	{panel.FieldAddress, []string{
		"address", "full address", "complete address", "location address",
		"physical address", "street address", "mailing address",
	}},
	{panel.FieldTelephone, []string{
		"tel no.", "tel", "phone", "telephone", "contact", "contact no",
		"contact number", "phone number", "tel number", "mobile", "contact no.",
	}},
	{panel.FieldRemarks, []string{
		"remarks", "comment", "note", "remark", "comments", "notes",
		"additional info", "special notes", "observation", "memo",
	}},
	{panel.FieldMonFriAM, []string{
		"mon - fri (am)", "monday - friday", "mon - fri", "mon-fri",
		"weekday am", "mon-fri am",
		"operating hours mon-fri", "weekdays am", "operating hours", "hours",
		"business hours", "clinic hours", "opening hours", "operation hours",
		"working hours", "service hours",
	}},
	{panel.FieldMonFriPM, []string{
		"mon - fri (pm)", "monday - friday (evening)", "weekday pm",
		"mon-fri pm", "weekdays pm",
	}},
	{panel.FieldMonFriNight, []string{
		"mon - fri (night)", "weekday night", "mon-fri night", "weekdays night",
	}},
	{panel.FieldSatAM, []string{"sat (am)", "sat am", "saturday am"}},
	{panel.FieldSatPM, []string{"sat (pm)", "sat pm", "saturday pm"}},
	{panel.FieldSatNight, []string{"sat (night)", "sat night", "saturday night"}},
	{panel.FieldSatSimple, []string{"sat", "saturday"}},
	{panel.FieldSunAM, []string{"sun (am)", "sun am", "sunday am"}},
	{panel.FieldSunPM, []string{"sun (pm)", "sun pm", "sunday pm"}},
	{panel.FieldSunNight, []string{"sun (night)", "sun night", "sunday night"}},
	{panel.FieldSunSimple, []string{"sun", "sunday"}},
	{panel.FieldHolidayAM, []string{"public holiday (am)", "holiday am", "ph am"}},
	{panel.FieldHolidayPM, []string{"public holiday (pm)", "holiday pm", "ph pm"}},
	{panel.FieldHolidayNight, []string{"public holiday (night)", "holiday night", "ph night"}},
	{panel.FieldHolidaySimple, []string{"public holiday", "holiday"}},
	{panel.FieldAddressBlk, []string{"blk", "block", "building no", "bldg no", "unit block"}},
	{panel.FieldAddressRoad, []string{"road name", "street name", "street", "road", "avenue", "ave"}},
	{panel.FieldAddressUnit, []string{"unit no.", "unit no", "unit", "#", "suite", "level"}},
	{panel.FieldAddressBuilding, []string{"building name", "building", "bldg name", "complex name"}},
	{panel.FieldPostalCode, []string{"postal code", "postcode", "zip code", "zip", "postal"}},
}

const (
	// fuzzyThreshold is the minimum label similarity for the general
	// fuzzy phase; regionAreaThreshold is stricter because short labels
	// like "area" fuzz into unrelated columns too easily. Both were tuned
	// against the historical insurer template corpus.
	fuzzyThreshold      = 0.6
	regionAreaThreshold = 0.8

	// keywordRatio: a keyword substring must occupy at least this share
	// of the label's length to count as a match.
	keywordRatio = 0.4
)

var whitespaceRE = regexp.MustCompile(`\s+`)

// normalizeLabel folds a raw header label for comparison: lower-cased,
// trimmed, internal whitespace (including newlines) collapsed to one space.
func normalizeLabel(label string) string {
	return whitespaceRE.ReplaceAllString(strings.ToLower(strings.TrimSpace(label)), " ")
}

// MapColumns resolves raw header labels to canonical field keys through
// four cascading phases: exact literal match, sequential hours inference,
// fuzzy match for essential keys, and keyword substring match. Each phase
// only fills keys still unresolved, and a column is claimed by at most one
// key.
func MapColumns(labels []string) panel.HeaderMap {
	hm := make(panel.HeaderMap)
	normalized := make([]string, len(labels))
	for i, l := range labels {
		normalized[i] = normalizeLabel(l)
	}

	// Phase 1: exact literal match.
	for _, fl := range columnLiterals {
		if hm.Has(fl.key) {
			continue
		}
	literals:
		for _, lit := range fl.literals {
			for col, label := range normalized {
				if label == lit && !hm.Claimed(col) {
					hm[fl.key] = col
					break literals
				}
			}
		}
	}

	inferWeekendColumns(hm, normalized)
	fuzzyMatchEssentials(hm, normalized)
	keywordMatchResidual(hm, normalized)
	return hm
}

// inferWeekendColumns is phase 2: templates with positional, unlabeled day
// columns put Saturday/Sunday/holiday hours immediately after the weekday
// column. When the weekday column resolved and the following 1-3 labels
// are blank or placeholders, bind them speculatively in day order.
func inferWeekendColumns(hm panel.HeaderMap, labels []string) {
	weekday, ok := hm.Col(panel.FieldMonFriAM)
	if !ok {
		return
	}
	targets := []panel.FieldKey{panel.FieldSatSimple, panel.FieldSunSimple, panel.FieldHolidaySimple}
	next := 0
	for col := weekday + 1; col < len(labels) && next < len(targets); col++ {
		if !isPlaceholderLabel(labels[col]) || hm.Claimed(col) {
			return
		}
		if !hm.Has(targets[next]) {
			hm[targets[next]] = col
		}
		next++
	}
}

var placeholderRE = regexp.MustCompile(`^(unnamed.*|column ?\d*|\d+|[-.]*)$`)

func isPlaceholderLabel(label string) bool {
	return placeholderRE.MatchString(label)
}

// essentialKeys are the only keys the fuzzy phase may fill; wider fuzzy
// matching produced too many false positives on real templates.
var essentialKeys = []struct {
	key       panel.FieldKey
	threshold float64
}{
	{panel.FieldClinicName, fuzzyThreshold},
	{panel.FieldTelephone, fuzzyThreshold},
	{panel.FieldRegion, regionAreaThreshold},
	{panel.FieldArea, regionAreaThreshold},
}

// fuzzyMatchEssentials is phase 3: approximate matching of accepted
// literals against sheet labels using normalized edit-distance similarity.
func fuzzyMatchEssentials(hm panel.HeaderMap, labels []string) {
	for _, ek := range essentialKeys {
		if hm.Has(ek.key) {
			continue
		}
		literals := literalsFor(ek.key)
	search:
		for _, lit := range literals {
			bestCol, bestScore := -1, 0.0
			for col, label := range labels {
				if label == "" || hm.Claimed(col) {
					continue
				}
				if score := similarity(lit, label); score > bestScore {
					bestCol, bestScore = col, score
				}
			}
			if bestCol >= 0 && bestScore >= ek.threshold {
				hm[ek.key] = bestCol
				break search
			}
		}
	}
}

func literalsFor(key panel.FieldKey) []string {
	for _, fl := range columnLiterals {
		if fl.key == key {
			return fl.literals
		}
	}
	return nil
}

// residualKeywords is the phase-4 table: keys that may still be recovered
// from a label containing a keyword, guarded by keywordRatio so a short
// substring inside a long unrelated label cannot claim the column.
var residualKeywords = []fieldLiterals{
	{panel.FieldClinicID, []string{"clinic id", "clinic code", "provider id", "provider code"}},
	{panel.FieldAddress, []string{"address", "location"}},
	{panel.FieldRemarks, []string{"remark", "comment", "note"}},
}

func keywordMatchResidual(hm panel.HeaderMap, labels []string) {
	for _, fl := range residualKeywords {
		if hm.Has(fl.key) {
			continue
		}
	cols:
		for col, label := range labels {
			if label == "" || hm.Claimed(col) {
				continue
			}
			for _, kw := range fl.literals {
				if strings.Contains(label, kw) && float64(len(kw)) > keywordRatio*float64(len(label)) {
					hm[fl.key] = col
					break cols
				}
			}
		}
	}
}

// similarity is a normalized edit-distance score in [0,1]: 1 minus the
// Levenshtein distance over the longer string's length.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longer := len(a)
	if len(b) > longer {
		longer = len(b)
	}
	if longer == 0 {
		return 1
	}
	return 1 - float64(levenshtein(a, b))/float64(longer)
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// dataLikeTokens in header labels indicate the "header" row is actually
// data (place names, clinic words, AM/PM), which triggers positional
// inference.
var dataLikeTokens = []string{
	"SINGAPORE", "CLINIC", "MEDICAL", "CENTRE", "AVENUE", "ROAD", "STREET", "AM", "PM",
}

const (
	inferMinMeaningfulLabels = 3
	inferDataLikeCount       = 2
)

// InferColumnsFromData assumes the fixed canonical column order
// [S/N, Region, Area, ID, Name, Address, Tel, MonFri, _, Sat, Sun, Holiday]
// when the sheet's labels look like data rather than headers. Returns nil
// when the labels look like a legitimate header.
func InferColumnsFromData(labels []string) panel.HeaderMap {
	var meaningful []string
	for _, l := range labels {
		if strings.TrimSpace(l) != "" {
			meaningful = append(meaningful, l)
		}
	}
	dataLike := 0
	for i, l := range meaningful {
		if i >= 6 {
			break
		}
		upper := strings.ToUpper(l)
		for _, tok := range dataLikeTokens {
			if strings.Contains(upper, tok) {
				dataLike++
				break
			}
		}
	}
	if len(meaningful) >= inferMinMeaningfulLabels && dataLike < inferDataLikeCount {
		return nil
	}
	if len(labels) < 5 {
		return nil
	}

	positions := []struct {
		key panel.FieldKey
		col int
	}{
		{panel.FieldRegion, 1},
		{panel.FieldArea, 2},
		{panel.FieldClinicID, 3},
		{panel.FieldClinicName, 4},
		{panel.FieldAddress, 5},
		{panel.FieldTelephone, 6},
		{panel.FieldMonFriAM, 7},
		{panel.FieldSatAM, 9},
		{panel.FieldSunAM, 10},
		{panel.FieldHolidayAM, 11},
	}
	hm := make(panel.HeaderMap)
	for _, p := range positions {
		if p.col < len(labels) {
			hm[p.key] = p.col
		}
	}
	return hm
}
