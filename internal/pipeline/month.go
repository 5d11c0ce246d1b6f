package pipeline

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

var monthPattern = regexp.MustCompile(`^(\d{4})[/-](\d{2})$`)

// NormalizeMonth parses "YYYY-MM" or "YYYY/MM" (surrounding whitespace
// tolerated) into canonical "YYYY-MM" form. Reports false if unparseable.
func NormalizeMonth(raw string) (string, bool) {
	m := monthPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return "", false
	}
	return m[1] + "-" + m[2], true
}

// PrevMonth returns the calendar month before m ("YYYY-MM"), wrapping January
// into December of the prior year.
func PrevMonth(m string) (string, error) {
	parts := strings.SplitN(m, "-", 2)
	if len(parts) != 2 {
		return "", eris.Errorf("prev month: malformed month %q", m)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return "", eris.Wrapf(err, "prev month: year in %q", m)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", eris.Wrapf(err, "prev month: month in %q", m)
	}
	if month < 1 || month > 12 {
		return "", eris.Errorf("prev month: month out of range in %q", m)
	}
	month--
	if month == 0 {
		month = 12
		year--
	}
	return fmt.Sprintf("%04d-%02d", year, month), nil
}

// PrevMonthDate returns the first of the month before m, as "YYYY-MM-01".
func PrevMonthDate(m string) (string, error) {
	prev, err := PrevMonth(m)
	if err != nil {
		return "", err
	}
	return prev + "-01", nil
}
