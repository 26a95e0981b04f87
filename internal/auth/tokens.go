// Package auth signs and verifies member resume tokens.
//
// A resume token lets a browser re-enter its room as the same member without
// retyping the PIN. Tokens are HS256 JWTs that expire with the room.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "availability-scheduler"

var (
	ErrMissingSecret = errors.New("auth: signing secret is empty")
	ErrInvalidToken  = errors.New("auth: invalid resume token")
)

// Claims binds a token to one member of one room.
type Claims struct {
	jwt.RegisteredClaims
	RoomCode string `json:"room"`
	MemberID string `json:"member"`
}

// TokenManager issues and verifies resume tokens.
type TokenManager struct {
	secret []byte
	now    func() time.Time
}

// NewTokenManager constructs a manager signing with secret.
func NewTokenManager(secret []byte, now func() time.Time) (*TokenManager, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}
	if now == nil {
		now = time.Now
	}
	return &TokenManager{secret: append([]byte(nil), secret...), now: now}, nil
}

// Issue signs a token for memberID in room code, valid until expiresAt.
func (m *TokenManager) Issue(code, memberID string, expiresAt time.Time) (string, error) {
	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   memberID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		RoomCode: code,
		MemberID: memberID,
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign resume token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of token and returns its room and member.
func (m *TokenManager) Verify(token string) (code, memberID string, err error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.RoomCode == "" || claims.MemberID == "" {
		return "", "", ErrInvalidToken
	}
	return claims.RoomCode, claims.MemberID, nil
}
