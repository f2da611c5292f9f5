package transform

import (
	"fmt"
	"regexp"
	"strings"

	"panelnorm/domain/panel"
)

// cleanCell trims a cell and folds the blank markers that survive numeric
// round-trips ("nan", "none") to the empty string.
func cleanCell(v string) string {
	s := strings.TrimSpace(v)
	switch strings.ToLower(s) {
	case "", "nan", "none":
		return ""
	}
	return s
}

// addressFragments is the fixed assembly order for composite addresses,
// with the prefix each fragment carries when the cell does not already
// start with it.
var addressFragments = []struct {
	key    panel.FieldKey
	prefix string
}{
	{panel.FieldAddressBlk, "Blk"},
	{panel.FieldAddressUnit, "#"},
	{panel.FieldAddressRoad, ""},
	{panel.FieldAddressBuilding, ""},
}

// ConstructAddress builds one address line for a data row. A complete
// address column wins outright; otherwise block/unit/road/building
// fragments are joined in fixed order. A source column referenced by more
// than one fragment role contributes once.
func ConstructAddress(row []string, hm panel.HeaderMap) string {
	if col, ok := hm.Col(panel.FieldAddress); ok {
		if v := cleanCell(cellAt(row, col)); v != "" {
			return v
		}
	}
	var parts []string
	used := make(map[int]bool)
	for _, frag := range addressFragments {
		col, ok := hm.Col(frag.key)
		if !ok || used[col] {
			continue
		}
		used[col] = true
		v := cleanCell(cellAt(row, col))
		if v == "" {
			continue
		}
		if frag.prefix != "" && !strings.HasPrefix(v, frag.prefix) {
			v = frag.prefix + " " + v
		}
		parts = append(parts, v)
	}
	return strings.Join(parts, " ")
}

func cellAt(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

// malaysianPlaces is the place-name/state lexicon that marks an address as
// Malaysian. Multi-word phrases come first so "negeri sembilan" is not
// shadowed by a shorter partial match.
var malaysianPlaces = []string{
	"johor bahru", "kuala lumpur", "negeri sembilan", "shah alam", "petaling jaya",
	"malaysia", "johor", "selangor", "penang", "perak", "kedah", "kelantan",
	"terengganu", "pahang", "melaka", "sabah", "sarawak", "perlis",
	"putrajaya", "labuan", "skudai",
}

var (
	sgPostalAfterCountryRE = regexp.MustCompile(`(?i)SINGAPORE\s+(\d{6})`)
	sixDigitRE             = regexp.MustCompile(`\b\d{6}\b`)
	fiveDigitStandaloneRE  = regexp.MustCompile(`(?:^|[\s,])(\d{5})(?:[\s,.]|$)`)
	fiveDigitTrailingRE    = regexp.MustCompile(`(\d{5})\s*$`)
	fiveDigitAnyRE         = regexp.MustCompile(`\d{5}`)
)

var (
	// fiveDigitBeforePlaceRE: a 5-digit run immediately preceding a
	// Malaysian state/country token ("80250 JOHOR BAHRU, JOHOR").
	fiveDigitBeforePlaceRE = regexp.MustCompile(
		`(?i)(\d{5})[\s,]+(?:` + strings.Join(malaysianPlaces, "|") + `)`)
	// placeThenFiveDigitRE: a known city name followed by its postcode.
	placeThenFiveDigitRE = regexp.MustCompile(
		`(?i)(?:` + strings.Join(malaysianPlaces, "|") + `)[\s,]+(\d{5})\b`)
)

// InferCountry decides which country an address belongs to. The explicit
// SINGAPORE keyword overrides everything ("Penang Road, Singapore" is
// Singaporean); then the Malaysian lexicon; then the postal digit-count
// heuristic. Blank text defaults to Singapore.
func InferCountry(text string) panel.Country {
	lower := strings.ToLower(cleanCell(text))
	if lower == "" {
		return panel.CountrySingapore
	}
	if strings.Contains(lower, "singapore") {
		return panel.CountrySingapore
	}
	for _, place := range malaysianPlaces {
		if strings.Contains(lower, place) {
			return panel.CountryMalaysia
		}
	}
	if fiveDigitStandaloneRE.MatchString(lower) && !sixDigitRE.MatchString(lower) {
		return panel.CountryMalaysia
	}
	return panel.CountrySingapore
}

// ExtractPostalCode pulls a postal code out of address text using the
// country's pattern cascade. Returns "" when no pattern matches.
func ExtractPostalCode(text string, country panel.Country) string {
	text = cleanCell(text)
	if text == "" {
		return ""
	}
	if country == panel.CountryMalaysia {
		return extractPostalMY(text)
	}
	return extractPostalSG(text)
}

// extractPostalSG: the literal SINGAPORE token followed by 6 digits wins;
// otherwise the last standalone 6-digit run in the text.
func extractPostalSG(text string) string {
	if m := sgPostalAfterCountryRE.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if all := sixDigitRE.FindAllString(text, -1); len(all) > 0 {
		return all[len(all)-1]
	}
	return ""
}

// extractPostalMY tries five patterns in order; the first with a match
// wins. The cascade runs from most to least reliable because a 5-digit run
// can also be a house or phone number fragment.
func extractPostalMY(text string) string {
	for _, re := range []*regexp.Regexp{
		fiveDigitStandaloneRE,
		placeThenFiveDigitRE,
		fiveDigitTrailingRE,
		fiveDigitBeforePlaceRE,
	} {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return fiveDigitAnyRE.FindString(text)
}

// CombinePhoneRemarks joins a telephone number with the remarks column as
// "phone - remarks"; a blank remarks cell leaves the phone alone.
func CombinePhoneRemarks(phone, remarks string) string {
	p := cleanCell(phone)
	r := cleanCell(remarks)
	if r == "" {
		return p
	}
	if p == "" {
		return r
	}
	return p + " - " + r
}

// AutoClinicID generates a deterministic fallback code when no ID column
// resolved: AUTO_{n}_{first 10 chars of the name, upper-cased}.
func AutoClinicID(index int, name string) string {
	n := strings.ToUpper(strings.ReplaceAll(cleanCell(name), " ", "_"))
	if len(n) > 10 {
		n = n[:10]
	}
	if n == "" {
		return fmt.Sprintf("AUTO_%04d", index+1)
	}
	return fmt.Sprintf("AUTO_%04d_%s", index+1, n)
}

// fallbackZoneArea covers templates missing one of region/area: the other
// column's value stands in, UNKNOWN when that is blank too.
func fallbackZoneArea(donor string) string {
	if v := cleanCell(donor); v != "" {
		return v
	}
	return "UNKNOWN"
}
