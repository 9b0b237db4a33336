// Package uuid generates the time-ordered identifiers used as snapshot keys.
package uuid

import (
	googleuuid "github.com/google/uuid"
)

// New generates a UUIDv7. Identifiers created by one process sort in creation
// order, which keeps snapshot primary keys index-friendly.
func New() string {
	id, err := googleuuid.NewV7()
	if err != nil {
		return googleuuid.New().String()
	}
	return id.String()
}

// Parse validates a UUID string and returns it in canonical lower-case form.
func Parse(s string) (string, error) {
	parsed, err := googleuuid.Parse(s)
	if err != nil {
		return "", err
	}
	return parsed.String(), nil
}

// IsValid checks if a string is a valid UUID.
func IsValid(s string) bool {
	_, err := googleuuid.Parse(s)
	return err == nil
}
