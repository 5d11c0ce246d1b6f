// Package render formats editorial output: AP-style dates, ordinals,
// competition rankings, and the per-state narrative paragraphs.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// AP style abbreviates most month names; March through July are spelled out.
var monthAbbrevs = map[int]string{
	1: "Jan.", 2: "Feb.", 3: "March", 4: "April",
	5: "May", 6: "June", 7: "July", 8: "Aug.",
	9: "Sept.", 10: "Oct.", 11: "Nov.", 12: "Dec.",
}

// APDate formats "2025-12-01" as "Dec. 1, 2025".
func APDate(dateStr string) (string, error) {
	parts := strings.Split(dateStr, "-")
	if len(parts) != 3 {
		return "", eris.Errorf("render: malformed date %q", dateStr)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return "", eris.Wrapf(err, "render: year in %q", dateStr)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", eris.Wrapf(err, "render: month in %q", dateStr)
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", eris.Wrapf(err, "render: day in %q", dateStr)
	}
	abbrev, ok := monthAbbrevs[month]
	if !ok {
		return "", eris.Errorf("render: month out of range in %q", dateStr)
	}
	return fmt.Sprintf("%s %d, %d", abbrev, day, year), nil
}

// Ordinal formats 1 as "1st", 2 as "2nd", 11 as "11th", 21 as "21st", etc.
func Ordinal(n int) string {
	if m := n % 100; m >= 11 && m <= 13 {
		return fmt.Sprintf("%dth", n)
	}
	switch n % 10 {
	case 1:
		return fmt.Sprintf("%dst", n)
	case 2:
		return fmt.Sprintf("%dnd", n)
	case 3:
		return fmt.Sprintf("%drd", n)
	default:
		return fmt.Sprintf("%dth", n)
	}
}
