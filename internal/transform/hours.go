package transform

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"panelnorm/domain/panel"
)

// DayKind is one of the four canonical operating-hours categories.
type DayKind int

const (
	DayWeekday DayKind = iota
	DaySaturday
	DaySunday
	DayHoliday
)

const hoursClosed = "CLOSED"

// dayColumns lists, per day category, the AM/PM/NIGHT columns of the
// complex form and the single column of the simple form.
var dayColumns = map[DayKind]struct {
	am, pm, night panel.FieldKey
	simple        panel.FieldKey
}{
	DayWeekday:  {panel.FieldMonFriAM, panel.FieldMonFriPM, panel.FieldMonFriNight, panel.FieldMonFriAM},
	DaySaturday: {panel.FieldSatAM, panel.FieldSatPM, panel.FieldSatNight, panel.FieldSatSimple},
	DaySunday:   {panel.FieldSunAM, panel.FieldSunPM, panel.FieldSunNight, panel.FieldSunSimple},
	DayHoliday:  {panel.FieldHolidayAM, panel.FieldHolidayPM, panel.FieldHolidayNight, panel.FieldHolidaySimple},
}

// CombineHours resolves one day category's hours for a data row, trying in
// order: the complex three-column AM/PM/NIGHT form, the simple single
// column used verbatim, then mining the remarks text. An explicit CLOSED
// cell is a real value and suppresses the remarks fallback; only truly
// blank cells fall through.
func CombineHours(row []string, hm panel.HeaderMap, day DayKind, remarks string) string {
	cols := dayColumns[day]

	if hm.Has(cols.am) || hm.Has(cols.pm) || hm.Has(cols.night) {
		am, amSet := subColumn(row, hm, cols.am)
		pm, pmSet := subColumn(row, hm, cols.pm)
		night, nightSet := subColumn(row, hm, cols.night)
		if amSet || pmSet || nightSet {
			return am + "/" + pm + "/" + night
		}
		// Columns exist but every cell is blank: the remarks may still
		// carry the real schedule.
		if mined := MineRemarksHours(remarks, day); mined != "" {
			return mined
		}
		return hoursClosed + "/" + hoursClosed + "/" + hoursClosed
	}

	if col, ok := hm.Col(cols.simple); ok {
		if v := cleanCell(cellAt(row, col)); v != "" {
			return v
		}
	}

	if mined := MineRemarksHours(remarks, day); mined != "" {
		return mined
	}
	return hoursClosed
}

// subColumn reads one AM/PM/NIGHT sub-cell; set reports whether the cell
// held a real value (an explicit CLOSED counts).
func subColumn(row []string, hm panel.HeaderMap, key panel.FieldKey) (string, bool) {
	col, ok := hm.Col(key)
	if !ok {
		return hoursClosed, false
	}
	v := cleanCell(cellAt(row, col))
	if v == "" {
		return hoursClosed, false
	}
	return v, true
}

// Day tokens recognized in remarks text, checked in order: ranges before
// slash-combinations before single days, so "mon-fri" is not consumed as
// a bare "fri".
var dayTokens = map[DayKind][]string{
	DayWeekday:  {"mon-fri", "mon - fri", "mon to fri", "monday-friday", "monday - friday", "monday to friday", "weekdays", "weekday"},
	DaySaturday: {"sat/sun", "sat / sun", "sat & sun", "sat-sun", "saturday", "sat"},
	DaySunday:   {"sat/sun", "sat / sun", "sat & sun", "sat-sun", "sunday", "sun"},
	DayHoliday:  {"public holiday", "holiday", "ph"},
}

var (
	timeDigitsRE = regexp.MustCompile(`\b(\d{3,4})\s*-\s*(\d{3,4})\b`)
	timeClockRE  = regexp.MustCompile(`(?i)\b(\d{1,2})[:.](\d{2})\s*(am|pm)?\s*-\s*(\d{1,2})[:.](\d{2})\s*(am|pm)?`)
	timeToRE     = regexp.MustCompile(`(?i)\b(\d{1,2})\s*(am|pm)?\s+to\s+(\d{1,2})\s*(am|pm)?\b`)
)

// MineRemarksHours extracts a day category's hours from free-text remarks.
// The text is split into segments on ';', each segment's leading day spec
// is matched against the category's tokens, and all time ranges in a
// matching segment are normalized and joined with ','. Returns "" when the
// remarks say nothing about the requested day.
func MineRemarksHours(remarks string, day DayKind) string {
	remarks = cleanCell(remarks)
	if remarks == "" {
		return ""
	}
	for _, segment := range strings.Split(remarks, ";") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		daySpec, times := splitDaySpec(segment)
		if !segmentCoversDay(daySpec, day) {
			continue
		}
		if ranges := extractTimeRanges(times); len(ranges) > 0 {
			return strings.Join(ranges, ",")
		}
	}
	return ""
}

// splitDaySpec separates a segment's day words from its time text. A ':'
// divider wins when no digit precedes it (a ':' inside "9:00" must not
// split); otherwise everything before the first digit is the day spec.
func splitDaySpec(segment string) (string, string) {
	if i := strings.Index(segment, ":"); i >= 0 {
		if j := strings.IndexFunc(segment[:i], isASCIIDigit); j < 0 {
			return segment[:i], segment[i+1:]
		}
	}
	if j := strings.IndexFunc(segment, isASCIIDigit); j >= 0 {
		return segment[:j], segment[j:]
	}
	return segment, ""
}

func isASCIIDigit(r rune) bool { return r >= '0' && r <= '9' }

func segmentCoversDay(daySpec string, day DayKind) bool {
	spec := strings.ToLower(daySpec)
	for _, tok := range dayTokens[day] {
		if strings.Contains(spec, tok) {
			return true
		}
	}
	return false
}

// extractTimeRanges finds every recognized time-range notation in text and
// normalizes each to a 4-digit 24-hour or AM/PM-suffixed form.
func extractTimeRanges(text string) []string {
	var ranges []string
	taken := func(lo, hi int, spans [][]int) bool {
		for _, s := range spans {
			if lo < s[1] && hi > s[0] {
				return true
			}
		}
		return false
	}
	var spans [][]int

	for _, m := range timeClockRE.FindAllStringSubmatchIndex(text, -1) {
		sub := timeClockRE.FindStringSubmatch(text[m[0]:m[1]])
		ranges = append(ranges, normalizeClock(sub[1], sub[2], sub[3])+"-"+normalizeClock(sub[4], sub[5], sub[6]))
		spans = append(spans, []int{m[0], m[1]})
	}
	for _, m := range timeDigitsRE.FindAllStringSubmatchIndex(text, -1) {
		if taken(m[0], m[1], spans) {
			continue
		}
		sub := timeDigitsRE.FindStringSubmatch(text[m[0]:m[1]])
		ranges = append(ranges, padTime(sub[1])+"-"+padTime(sub[2]))
		spans = append(spans, []int{m[0], m[1]})
	}
	for _, m := range timeToRE.FindAllStringSubmatchIndex(text, -1) {
		if taken(m[0], m[1], spans) {
			continue
		}
		sub := timeToRE.FindStringSubmatch(text[m[0]:m[1]])
		ranges = append(ranges, normalizeClock(sub[1], "00", sub[2])+"-"+normalizeClock(sub[3], "00", sub[4]))
		spans = append(spans, []int{m[0], m[1]})
	}
	return ranges
}

// normalizeClock renders an hour/minute pair as HHMM, keeping an AM/PM
// suffix when the source had one.
func normalizeClock(hour, minute, meridiem string) string {
	h, _ := strconv.Atoi(hour)
	m, _ := strconv.Atoi(minute)
	out := fmt.Sprintf("%02d%02d", h, m)
	if meridiem != "" {
		out += strings.ToUpper(meridiem)
	}
	return out
}

func padTime(digits string) string {
	for len(digits) < 4 {
		digits = "0" + digits
	}
	return digits
}
