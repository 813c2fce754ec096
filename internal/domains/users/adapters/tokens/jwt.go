package tokens

import (
	"github.com/Apurer/go-gin-marketplace/internal/domains/users/ports"
	"github.com/Apurer/go-gin-marketplace/internal/platform/auth"
)

// JWT adapts the platform token manager to the users port.
type JWT struct {
	manager *auth.Manager
}

func NewJWT(manager *auth.Manager) *JWT {
	return &JWT{manager: manager}
}

func (j *JWT) Issue(userID string, isSeller, isAdmin bool) (string, ports.TokenClaims, error) {
	token, claims, err := j.manager.Issue(userID, isSeller, isAdmin)
	if err != nil {
		return "", ports.TokenClaims{}, err
	}
	return token, toPort(claims), nil
}

func (j *JWT) Verify(token string) (ports.TokenClaims, error) {
	claims, err := j.manager.Parse(token)
	if err != nil {
		return ports.TokenClaims{}, err
	}
	return toPort(claims), nil
}

func toPort(claims *auth.Claims) ports.TokenClaims {
	out := ports.TokenClaims{
		TokenID:  claims.ID,
		UserID:   claims.Subject,
		IsSeller: claims.IsSeller,
		IsAdmin:  claims.IsAdmin,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out
}

var _ ports.TokenIssuer = (*JWT)(nil)
