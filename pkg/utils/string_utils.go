package utils

import "strconv"

// NewNullString is a helper for optional string fields, returning nil if the
// string is empty so the column is stored as NULL.
func NewNullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StrToInt64 parses a decimal string id, typically a path parameter.
func StrToInt64(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}
