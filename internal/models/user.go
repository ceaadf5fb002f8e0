package models

import "github.com/google/uuid"

// User is the resolved caller identity. It is an input to the core, owned by
// the identity collaborator. Premium users bypass quota checks but their
// activity is still ledgered.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	IsPremium bool      `json:"is_premium"`
}
