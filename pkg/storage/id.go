package storage

import "github.com/google/uuid"

// NewID returns a store-assigned record ID. UUIDv7 keeps ID order aligned with
// creation order, which makes ID a meaningful tie-breaker.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
