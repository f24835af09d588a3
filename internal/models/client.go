package models

import (
	"net/mail"
	"strings"
)

type Client struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email,omitempty"`
	Phone     string     `json:"phone"`
	Enabled   bool       `json:"enabled"`
	CreatedAt *Timestamp `json:"created_at,omitempty"`
}

func (c Client) EntityID() string { return c.ID }

// Matches does a case-insensitive substring search over name, email and phone.
func (c Client) Matches(q string) bool {
	return containsFold(q, c.Name, c.Email, c.Phone)
}

// ClientForm is the payload for creating or updating a client.
type ClientForm struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone"`
	Enabled bool   `json:"enabled"`
}

func (f ClientForm) Validate() error {
	verr := &ValidationError{}
	if strings.TrimSpace(f.Name) == "" {
		verr.add("name", "Name is required")
	}
	if f.Email != "" {
		if _, err := mail.ParseAddress(f.Email); err != nil {
			verr.add("email", "Invalid email address")
		}
	}
	if strings.TrimSpace(f.Phone) == "" {
		verr.add("phone", "Phone number is required")
	}
	return verr.orNil()
}
