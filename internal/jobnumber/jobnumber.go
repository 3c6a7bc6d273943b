// Package jobnumber allocates YYMMSSSS job identifiers and keeps the
// in-memory catalogue of identifiers already known to the store.
package jobnumber

import (
	"errors"
	"fmt"
	"strconv"
)

const (
	// Length is the fixed width of a job number.
	Length = 8
	// PrefixLength is the YYMM part.
	PrefixLength = 4
	// FirstSequence is issued for a month range with no prior job numbers.
	FirstSequence = 100
	// MaxSequence is the largest sequence a 4-digit suffix can hold.
	MaxSequence = 9999
)

// ErrSequenceExhausted is returned instead of issuing a 5-digit sequence.
var ErrSequenceExhausted = errors.New("job number sequence exhausted")

// Valid reports whether id is eight ASCII digits with a month of 01..12.
func Valid(id string) bool {
	if len(id) != Length {
		return false
	}
	for i := 0; i < Length; i++ {
		if id[i] < '0' || id[i] > '9' {
			return false
		}
	}
	month := int(id[2]-'0')*10 + int(id[3]-'0')
	return month >= 1 && month <= 12
}

// Prefix returns the YYMM part of id.
func Prefix(id string) string {
	if len(id) < PrefixLength {
		return id
	}
	return id[:PrefixLength]
}

// Sequence parses the 4-digit suffix of a valid id.
func Sequence(id string) (int, error) {
	if !Valid(id) {
		return 0, fmt.Errorf("malformed job number %q", id)
	}
	return strconv.Atoi(id[PrefixLength:])
}

// Format builds a job number from a YYMM prefix and a sequence.
func Format(prefix string, seq int) (string, error) {
	if seq < 0 || seq > MaxSequence {
		return "", fmt.Errorf("%w: %s%d", ErrSequenceExhausted, prefix, seq)
	}
	return fmt.Sprintf("%s%04d", prefix, seq), nil
}
