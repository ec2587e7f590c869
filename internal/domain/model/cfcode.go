package model

import (
	"errors"
	"regexp"
	"strconv"
)

// ProblemCode identifies a single Codeforces problem in the compact
// "<contestId><index>" form, e.g. "4A" or "1720D1".
type ProblemCode struct {
	ContestID int    `json:"contest_id"`
	Index     string `json:"index"`
}

// ErrInvalidProblemCode is returned for any string that is not a well-formed
// problem code.
var ErrInvalidProblemCode = errors.New("invalid problem code")

// One or more digits, one uppercase letter, then an optional numeric suffix
// ("D1", "B2"). This pattern is the single source of truth for code shape;
// nothing else in the codebase re-validates it.
var problemCodePattern = regexp.MustCompile(`^([0-9]+)([A-Z][0-9]*)$`)

// ParseProblemCode parses and validates a compact problem code.
func ParseProblemCode(code string) (ProblemCode, error) {
	m := problemCodePattern.FindStringSubmatch(code)
	if m == nil {
		return ProblemCode{}, ErrInvalidProblemCode
	}
	contestID, err := strconv.Atoi(m[1])
	if err != nil || contestID < 1 {
		return ProblemCode{}, ErrInvalidProblemCode
	}
	return ProblemCode{ContestID: contestID, Index: m[2]}, nil
}

// String renders the code back to its compact form, the inverse of
// ParseProblemCode.
func (c ProblemCode) String() string {
	return strconv.Itoa(c.ContestID) + c.Index
}
