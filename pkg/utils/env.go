package utils

import (
	"os"
	"strconv"
)

// Getenv returns the named environment variable, or fallback when it is
// unset or empty.
func Getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// GetenvInt reads an integer environment variable, falling back when the
// variable is unset or not a valid integer.
func GetenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		LogWarn("ignoring non-integer value for " + key)
		return fallback
	}
	return parsed
}
