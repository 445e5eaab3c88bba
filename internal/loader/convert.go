package loader

// convert.go turns raw worksheet cells into the values an ExportRecord holds.
//
// Source sheets are hand-maintained, so numeric cells may carry currency
// symbols, thousands separators, accounting parentheses or an Excel formula
// prefix. Anything that still does not parse becomes zero.

import (
	"regexp"
	"strconv"
	"strings"
)

// numericRegex matches integers, decimals and scientific notation after cleanup.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// ParseAmount converts a cell to float64. Empty or malformed input is 0.
func ParseAmount(s string) float64 {
	s = CleanCell(s)
	if s == "" {
		return 0
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.NewReplacer(
		"$", "",
		"E£", "",
		"£", "",
		"€", "",
		"EGP", "",
		"USD", "",
		",", "",
		" ", "",
	).Replace(s)
	s = strings.TrimSpace(s)

	if !numericRegex.MatchString(s) {
		return 0
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	if negative {
		f = -f
	}
	return f
}

// CleanCell trims whitespace, strips an Excel formula prefix (="..." or =...)
// and removes surrounding quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(strings.Trim(s, `"'`))
}

// FormatCode renders an HS code cell as text. Codes stored as numbers come
// back from the workbook as "854449" or "854449.0"; both become "854449".
func FormatCode(s string) string {
	s = CleanCell(s)
	if s == "" {
		return ""
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return s
}

// canonicalKey folds a grouping key: trim, collapse inner whitespace, lower case.
func canonicalKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
