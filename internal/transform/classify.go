package transform

import "strings"

// terminationTokens marks sheets listing providers to remove from the panel.
var terminationTokens = []string{"terminat", "remov", "cancel", "delist"}

// panelTokens marks sheets carrying active provider listings. The lexicon
// covers clinic types, specialist listings, country segments, plan names
// and generic healthcare wording seen across insurer export templates.
var panelTokens = []string{
	"gp", "tcm", "dental", "clinic", "panel",
	"sp list", "sp clinic", "specialist",
	"sg", "my", "msia", "malaysia", "singapore",
	"blue", "red", "flexi", "aia",
	"medical", "health", "doctor",
}

// ClassifySheets splits workbook sheet names into panel sheets and
// termination sheets. Termination tokens win over panel tokens; names
// matching neither lexicon are silently excluded.
func ClassifySheets(names []string) (panelSheets, terminationSheets []string) {
	for _, name := range names {
		lower := strings.ToLower(name)
		if containsAny(lower, terminationTokens) {
			terminationSheets = append(terminationSheets, name)
			continue
		}
		if containsAny(lower, panelTokens) {
			panelSheets = append(panelSheets, name)
		}
	}
	return panelSheets, terminationSheets
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

const (
	// minHeaderCells is the non-empty cell count that makes a row a
	// plausible header when no keyword predicate fires.
	minHeaderCells = 5
	// defaultHeaderRow is the final fallback index; insurer templates
	// historically place headers under a 4-row title block.
	defaultHeaderRow = 4
)

// headerPredicates are keyword co-occurrence tests applied to each row's
// concatenated lower-cased text, in priority order. The first row whose
// text satisfies any predicate is the header row.
var headerPredicates = []func(text string, nonEmpty int) bool{
	func(t string, _ int) bool { return hasAll(t, "s/n", "clinic", "id") },
	func(t string, _ int) bool { return hasAll(t, "s/n", "region", "area") },
	func(t string, _ int) bool { return hasAll(t, "s/n", "clinic", "name") },
	func(t string, _ int) bool { return hasAll(t, "no.", "clinic", "name") },
	func(t string, _ int) bool { return hasAll(t, "no.", "region", "area") },
	func(t string, _ int) bool { return hasAll(t, "master code", "clinic", "postal") },
	func(t string, n int) bool { return hasAll(t, "region", "clinic") && n >= minHeaderCells },
}

// FindHeaderRow scans rows top to bottom for the true header row; headers
// are rarely at row 0 in these exports. Falls back to the first row with
// enough non-empty cells, then to defaultHeaderRow.
func FindHeaderRow(rows [][]string) int {
	for idx, row := range rows {
		text, nonEmpty := rowProfile(row)
		for _, pred := range headerPredicates {
			if pred(text, nonEmpty) {
				return idx
			}
		}
	}
	for idx, row := range rows {
		if _, nonEmpty := rowProfile(row); nonEmpty >= minHeaderCells {
			return idx
		}
	}
	return defaultHeaderRow
}

// rowProfile joins a row's non-empty cells into one lower-cased string and
// counts them.
func rowProfile(row []string) (string, int) {
	var cells []string
	for _, v := range row {
		if s := strings.TrimSpace(v); s != "" {
			cells = append(cells, s)
		}
	}
	return strings.ToLower(strings.Join(cells, " ")), len(cells)
}

func hasAll(text string, tokens ...string) bool {
	for _, t := range tokens {
		if !strings.Contains(text, t) {
			return false
		}
	}
	return true
}
