package models

import "github.com/google/uuid"

// AuthenticatedUser is the identity extracted from a validated bearer token.
type AuthenticatedUser struct {
	ID    uuid.UUID
	Email string
}
