// Package cvr validates Danish company registration numbers.
package cvr

import (
	"errors"
	"strings"
)

// ErrInvalid is returned for numbers that are not eight digits or fail
// the modulus 11 check
var ErrInvalid = errors.New("invalid CVR number")

var weights = [8]int{2, 7, 6, 5, 4, 3, 2, 1}

// Normalize strips the spaces and a leading "DK" that customers commonly
// type in front of the number
func Normalize(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "DK")
	return strings.ReplaceAll(s, " ", "")
}

// Validate checks s after normalization. The weighted digit sum of a
// valid number is divisible by 11.
func Validate(s string) error {
	s = Normalize(s)
	if len(s) != len(weights) {
		return ErrInvalid
	}

	sum := 0
	for i, r := range s {
		if r < '0' || r > '9' {
			return ErrInvalid
		}
		sum += int(r-'0') * weights[i]
	}
	if sum%11 != 0 {
		return ErrInvalid
	}
	return nil
}

// Valid reports whether s is a valid CVR number
func Valid(s string) bool {
	return Validate(s) == nil
}
