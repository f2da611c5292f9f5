package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"panelnorm/domain/panel"
)

func TestCombineHoursComplexForm(t *testing.T) {
	hm := panel.HeaderMap{
		panel.FieldMonFriAM:    0,
		panel.FieldMonFriPM:    1,
		panel.FieldMonFriNight: 2,
	}

	row := []string{"0900-1200", "1400-1700", "1800-2100"}
	assert.Equal(t, "0900-1200/1400-1700/1800-2100", CombineHours(row, hm, DayWeekday, ""))
}

func TestCombineHoursPartialSubColumns(t *testing.T) {
	hm := panel.HeaderMap{
		panel.FieldMonFriAM:    0,
		panel.FieldMonFriPM:    1,
		panel.FieldMonFriNight: 2,
	}

	// AM set, PM and night blank: blanks render as CLOSED.
	row := []string{"0900-1200", "", ""}
	assert.Equal(t, "0900-1200/CLOSED/CLOSED", CombineHours(row, hm, DayWeekday, ""))
}

func TestCombineHoursAllBlankColumns(t *testing.T) {
	hm := panel.HeaderMap{
		panel.FieldMonFriAM: 0,
		panel.FieldMonFriPM: 1,
	}
	row := []string{"", ""}
	assert.Equal(t, "CLOSED/CLOSED/CLOSED", CombineHours(row, hm, DayWeekday, ""))
}

func TestCombineHoursBlankColumnsFallToRemarks(t *testing.T) {
	hm := panel.HeaderMap{panel.FieldMonFriAM: 0}
	row := []string{""}
	got := CombineHours(row, hm, DayWeekday, "Mon-Fri: 0900-1230, 1400-1600")
	assert.Equal(t, "0900-1230,1400-1600", got)
}

func TestCombineHoursExplicitClosedSuppressesRemarks(t *testing.T) {
	hm := panel.HeaderMap{
		panel.FieldMonFriAM: 0,
		panel.FieldMonFriPM: 1,
	}
	row := []string{"CLOSED", ""}
	got := CombineHours(row, hm, DayWeekday, "Mon-Fri: 0900-1230")
	assert.Equal(t, "CLOSED/CLOSED/CLOSED", got)
}

func TestCombineHoursSimpleForm(t *testing.T) {
	hm := panel.HeaderMap{panel.FieldSatSimple: 0}
	assert.Equal(t, "0900-1300", CombineHours([]string{"0900-1300"}, hm, DaySaturday, ""))
	assert.Equal(t, "CLOSED", CombineHours([]string{""}, hm, DaySaturday, ""))
}

func TestCombineHoursNothingMapped(t *testing.T) {
	hm := panel.HeaderMap{}
	assert.Equal(t, "CLOSED", CombineHours([]string{}, hm, DaySunday, ""))
}

func TestMineRemarksHours(t *testing.T) {
	remarks := "Mon-Fri: 0900-1230, 1400-1600; Sat/Sun: 0900-1200"

	assert.Equal(t, "0900-1230,1400-1600", MineRemarksHours(remarks, DayWeekday))
	assert.Equal(t, "0900-1200", MineRemarksHours(remarks, DaySaturday))
	assert.Equal(t, "0900-1200", MineRemarksHours(remarks, DaySunday))
	assert.Equal(t, "", MineRemarksHours(remarks, DayHoliday))
}

func TestMineRemarksHoursClockNotation(t *testing.T) {
	assert.Equal(t, "0900AM-0530PM", MineRemarksHours("Weekdays 9:00am - 5:30pm", DayWeekday))
}

func TestMineRemarksHoursToNotation(t *testing.T) {
	assert.Equal(t, "0900AM-0500PM", MineRemarksHours("Sat 9am to 5pm", DaySaturday))
}

func TestMineRemarksHoursEmpty(t *testing.T) {
	assert.Equal(t, "", MineRemarksHours("", DayWeekday))
	assert.Equal(t, "", MineRemarksHours("walk-in only", DayWeekday))
}

func TestExtractTimeRangesNoDoubleCount(t *testing.T) {
	// The digits pattern must not re-extract a span already taken by the
	// clock pattern.
	ranges := extractTimeRanges("9:00-17:00")
	assert.Equal(t, []string{"0900-1700"}, ranges)
}

func TestPadTime(t *testing.T) {
	assert.Equal(t, "0900", padTime("900"))
	assert.Equal(t, "1730", padTime("1730"))
}
