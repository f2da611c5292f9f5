package panel

import (
	"strconv"
	"strings"
)

// TerminationKey identifies a terminated provider entry. PostalCode is ""
// when the termination sheet carried no recoverable postal code, in which
// case the key matches every postal code for that provider.
type TerminationKey struct {
	Code       string
	PostalCode string
}

// TerminationSet is the set of providers to remove from panel sheets.
// It is built once per workbook and read-only afterwards.
type TerminationSet map[TerminationKey]struct{}

// Add inserts a key built from already-normalized code and postal values.
func (s TerminationSet) Add(code, postal string) {
	if code == "" {
		return
	}
	s[TerminationKey{Code: code, PostalCode: postal}] = struct{}{}
}

// Matches reports whether a panel row with the given normalized code and
// postal code is terminated. Both the postal-specific pair and the
// code-only fallback key are consulted; matching is exact on both fields.
func (s TerminationSet) Matches(code, postal string) bool {
	if code == "" {
		return false
	}
	if _, ok := s[TerminationKey{Code: code, PostalCode: postal}]; ok {
		return true
	}
	_, ok := s[TerminationKey{Code: code}]
	return ok
}

// Codes returns the distinct provider codes in the set.
func (s TerminationSet) Codes() []string {
	seen := make(map[string]struct{}, len(s))
	var codes []string
	for k := range s {
		if _, dup := seen[k.Code]; dup {
			continue
		}
		seen[k.Code] = struct{}{}
		codes = append(codes, k.Code)
	}
	return codes
}

// NormalizeCode folds a raw provider code into its comparable form:
// whitespace trimmed, blank/nan/none collapsed to "", and the spurious
// ".0" suffix that numeric cells pick up stripped ("40088.0" -> "40088").
func NormalizeCode(raw string) string {
	code := strings.TrimSpace(raw)
	switch strings.ToLower(code) {
	case "", "nan", "none":
		return ""
	}
	if strings.HasSuffix(code, ".0") {
		base := strings.TrimSuffix(code, ".0")
		if _, err := strconv.Atoi(base); err == nil {
			return base
		}
	}
	return code
}
