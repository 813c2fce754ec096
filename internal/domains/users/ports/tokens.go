package ports

import "time"

// TokenClaims is what the users context needs back from a verified token.
type TokenClaims struct {
	TokenID   string
	UserID    string
	IsSeller  bool
	IsAdmin   bool
	ExpiresAt time.Time
}

// TokenIssuer signs and verifies bearer tokens.
type TokenIssuer interface {
	Issue(userID string, isSeller, isAdmin bool) (string, TokenClaims, error)
	Verify(token string) (TokenClaims, error)
}
