// Package codes generates the sequential identifiers used by controlled
// documents: revision codes (A, B, ..., Z, AA, AB, ...) and transmittal codes
// (TR-001, TR-002, ...). All functions are pure; persistence and uniqueness
// under concurrency are the caller's concern.
package codes

import (
	"fmt"
	"regexp"
	"strconv"
)

// FirstAlphabetical is the revision code assigned to a document's first
// revision under the ALPHABETICAL scheme.
const FirstAlphabetical = "A"

// FirstNumeric is the revision code assigned to a document's first revision
// under the NUMERIC scheme.
const FirstNumeric = "0"

var transmittalCodeRe = regexp.MustCompile(`^TR-(\d+)$`)

// NextAlphabetical increments a letter revision code as a base-26 numeral
// with digits A-Z. Z carries into the next position and a carry past the
// leftmost position prepends an A, so Z -> AA and AZ -> BA. The empty string
// yields the first code, A.
func NextAlphabetical(current string) string {
	if current == "" {
		return FirstAlphabetical
	}

	chars := []byte(current)
	carry := true
	for i := len(chars) - 1; i >= 0 && carry; i-- {
		if chars[i] == 'Z' {
			chars[i] = 'A'
		} else {
			chars[i]++
			carry = false
		}
	}
	if carry {
		chars = append([]byte{'A'}, chars...)
	}
	return string(chars)
}

// NextNumeric increments a numeric revision code. The empty string yields the
// first code, 0. Non-numeric input is an error rather than a silent reset.
func NextNumeric(current string) (string, error) {
	if current == "" {
		return FirstNumeric, nil
	}
	n, err := strconv.Atoi(current)
	if err != nil {
		return "", fmt.Errorf("revision code %q is not numeric", current)
	}
	return strconv.Itoa(n + 1), nil
}

// ParseTransmittalCode extracts the numeric sequence from a TR-NNN code.
// Returns false for codes that do not match the pattern.
func ParseTransmittalCode(code string) (int, bool) {
	m := transmittalCodeRe.FindStringSubmatch(code)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// FormatTransmittalCode renders a sequence number as TR-NNN, zero-padded to
// three digits. Sequences past 999 keep their natural width.
func FormatTransmittalCode(n int) string {
	return fmt.Sprintf("TR-%03d", n)
}

// NextTransmittalCode derives the next code from the most recent existing
// code. An empty or unparsable last code starts the sequence at TR-001.
func NextTransmittalCode(last string) string {
	n, ok := ParseTransmittalCode(last)
	if !ok {
		return FormatTransmittalCode(1)
	}
	return FormatTransmittalCode(n + 1)
}
