package utils

import "github.com/google/uuid"

// GenerateID returns a new random identifier for any stored entity
func GenerateID() string {
	return uuid.NewString()
}

// IsValidID reports whether s looks like an id produced by GenerateID
func IsValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
