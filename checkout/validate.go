package checkout

import (
	"strconv"
	"strings"
)

// Quantity parses a user-entered stock quantity. Valid quantities are
// positive base-10 integers; anything else (empty, zero, negative,
// non-numeric) is rejected.
func Quantity(input string) (int, bool) {
	value, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || value <= 0 {
		return 0, false
	}
	return value, true
}
