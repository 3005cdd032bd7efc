package session

import (
	"fmt"
	"strconv"
	"strings"
)

// parsePair parses the archive's textual tuple encoding "{a, b}", used for
// content origins, unscaled sizes and character ranges.
func parsePair(s string) (a, b float64, err error) {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) < 2 || trimmed[0] != '{' || trimmed[len(trimmed)-1] != '}' {
		return 0, 0, fmt.Errorf("session: %q is not a {a, b} tuple", s)
	}

	first, second, found := strings.Cut(trimmed[1:len(trimmed)-1], ",")
	if !found {
		return 0, 0, fmt.Errorf("session: tuple %q has no separator", s)
	}

	a, err = strconv.ParseFloat(strings.TrimSpace(first), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("session: tuple %q first component: %w", s, err)
	}
	b, err = strconv.ParseFloat(strings.TrimSpace(second), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("session: tuple %q second component: %w", s, err)
	}
	return a, b, nil
}
