package numberutils

import "unicode"

// IsDigits checks if the given string contains only ASCII digits (0-9).
func IsDigits(str string) bool {
	for _, r := range str {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
