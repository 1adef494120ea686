package pkguid

import (
	"log/slog"

	"github.com/google/uuid"
)

// UUID generates correlation ids. Ids are time-ordered v7 so request logs
// sort naturally; a random v4 is used if v7 generation fails.
type UUID struct{}

func NewUUID() *UUID {
	return &UUID{}
}

func (u *UUID) Generate() string {
	id, err := uuid.NewV7()
	if err != nil {
		slog.Warn("uuid v7 unavailable, using v4", "because", err)
		return uuid.NewString()
	}
	return id.String()
}
