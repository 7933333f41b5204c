package helpers

import (
	"github.com/golang-jwt/jwt/v5"
)

const (
	AudienceSession           = "session"
	AudienceEmailVerification = "email-verification"
	AudiencePasswordReset     = "password-reset"
)

// SessionClaims identify a logged in user.
type SessionClaims struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Admin    bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

func (sc *SessionClaims) IsAdmin() bool {
	return sc.Admin
}

func (sc *SessionClaims) IsOwner(userID int64) bool {
	return sc.ID == userID
}

// CanManage reports whether the user may modify a resource owned by ownerID.
func (sc *SessionClaims) CanManage(ownerID int64) bool {
	return sc.IsOwner(ownerID) || sc.IsAdmin()
}

// MailClaims travel in verification and password reset links.
type MailClaims struct {
	FullMail string `json:"fullMail"`
	jwt.RegisteredClaims
}
