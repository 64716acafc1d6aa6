package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// monthAbbrevs are the 3-letter month tokens that appear in statement
// date columns. Used as a cheap prefilter before full field extraction.
var monthAbbrevs = []string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// amountAtEnd matches a trailing monetary token such as "1,234.56",
// "-45.00" or "$12.30". A line without this match is not a data line.
var amountAtEnd = regexp.MustCompile(`(-?\$?\d[\d,]*\.?\d{0,2})$`)

// yearPattern finds the first calendar year token in the 2000s.
var yearPattern = regexp.MustCompile(`\b(20\d{2})\b`)

// resolveYear returns the first 4-digit "20xx" token in the document
// text, falling back to the supplied clock's current year. Statement
// lines carry only month and day, so the year is resolved once per
// document.
func resolveYear(text string, now func() time.Time) int {
	if m := yearPattern.FindString(text); m != "" {
		y, err := strconv.Atoi(m)
		if err == nil {
			return y
		}
	}
	return now().Year()
}

// hasMonthToken reports whether a line contains any 3-letter month
// abbreviation.
func hasMonthToken(line string) bool {
	for _, m := range monthAbbrevs {
		if strings.Contains(line, m) {
			return true
		}
	}
	return false
}

// parseAmount converts a token like "$1,234.56" or "-45.00" to a float.
// The bool result is false when the token does not parse as a number;
// callers drop the line in that case rather than emitting a bad record.
func parseAmount(token string) (float64, bool) {
	token = strings.ReplaceAll(token, ",", "")
	token = strings.ReplaceAll(token, "$", "")
	d, err := decimal.NewFromString(token)
	if err != nil {
		return 0, false
	}
	return d.InexactFloat64(), true
}

// toDate builds a calendar date from a month abbreviation, a day token
// and the resolved statement year. An unparseable date yields the zero
// time rather than failing the whole line.
func toDate(mon, day string, year int) time.Time {
	d, err := strconv.Atoi(day)
	if err != nil {
		return time.Time{}
	}
	t, err := time.Parse("Jan 2 2006", mon+" "+strconv.Itoa(d)+" "+strconv.Itoa(year))
	if err != nil {
		return time.Time{}
	}
	return t
}
