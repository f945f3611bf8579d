package numberutils

import (
	"fmt"
	"strconv"
	"strings"
)

// ToUint64WithError converts a trimmed decimal string to uint64. Signs,
// spaces inside the number and empty strings are rejected.
func ToUint64WithError(str string) (uint64, error) {
	str = strings.TrimSpace(str)
	if str == "" || !IsDigits(str) {
		return 0, fmt.Errorf("%q is not an unsigned integer", str)
	}
	value, err := strconv.ParseUint(str, 10, 64)
	if err != nil {
		return 0, err
	}
	return value, nil
}

// SplitUint64 parses a comma separated list, skipping empty items.
func SplitUint64(list string) ([]uint64, error) {
	var result []uint64
	for _, item := range strings.Split(list, ",") {
		if strings.TrimSpace(item) == "" {
			continue
		}
		value, err := ToUint64WithError(item)
		if err != nil {
			return nil, err
		}
		result = append(result, value)
	}
	return result, nil
}
