package platform

import "github.com/google/uuid"

// newID returns a UUID v7 string, falling back to v4.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
