package models

import (
	"fmt"
	"strings"

	"github.com/desertthunder/maestro/internal/shared"
)

// Session identifies the signed-in user. It is passed explicitly to every component that
// reads or writes the user's collection.
type Session struct {
	UserID      string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	AppID       string `json:"appId"`
}

// Valid reports whether the session names a user and an application.
func (s Session) Valid() bool {
	return strings.TrimSpace(s.UserID) != "" && strings.TrimSpace(s.AppID) != ""
}

// Require returns [shared.ErrNotAuthenticated] unless the session is valid.
func (s Session) Require() error {
	if !s.Valid() {
		return fmt.Errorf("%w: Please sign in first.", shared.ErrNotAuthenticated)
	}
	return nil
}

// CollectionPath is the logical address of the user's playlist collection.
func (s Session) CollectionPath() string {
	return fmt.Sprintf("artifacts/%s/users/%s/playlists", s.AppID, s.UserID)
}

// DisplayNameFor picks the name shown for a user: the given name, else the email local part,
// else "User " followed by the first six characters of uid.
func DisplayNameFor(name, email, uid string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	if local, _, ok := strings.Cut(strings.TrimSpace(email), "@"); ok && local != "" {
		return local
	}
	if len(uid) > 6 {
		uid = uid[:6]
	}
	return "User " + uid
}
