package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is the backend token the gateway currently holds for a user.
type Session struct {
	ID        uuid.UUID `json:"id"`
	Token     string    `json:"token"`
	User      User      `json:"user"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Valid reports whether the token is still usable at now, keeping skew in hand.
func (s *Session) Valid(now time.Time, skew time.Duration) bool {
	return s != nil && s.Token != "" && now.Add(skew).Before(s.ExpiresAt)
}
