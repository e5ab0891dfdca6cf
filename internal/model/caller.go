package model

import "github.com/google/uuid"

// Caller identifies the user behind a request. A zero Caller is anonymous:
// promo codes can be retrieved without authentication, everything else
// requires a token.
type Caller struct {
	ID            uuid.UUID
	Admin         bool
	Authenticated bool
}

// Anonymous is the caller used for unauthenticated requests.
var Anonymous = Caller{}
