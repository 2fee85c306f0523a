package session

import (
	"errors"
	"strings"
)

var ErrNoOwner = errors.New("no authenticated owner")

// Session carries the owner identity handed out by the identity provider.
// It is passed explicitly to every operation that touches a ledger.
type Session struct {
	OwnerID string
}

func New(ownerID string) Session { return Session{OwnerID: strings.TrimSpace(ownerID)} }

// Owner returns the owner id, or ErrNoOwner when the session is anonymous.
func (s Session) Owner() (string, error) {
	if s.OwnerID == "" {
		return "", ErrNoOwner
	}
	return s.OwnerID, nil
}
