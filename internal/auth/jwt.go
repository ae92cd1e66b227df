package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

type Manager struct {
	Secret    []byte
	AccessTTL time.Duration
	Issuer    string
}

type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

func (m *Manager) NewAccessToken(userID string, roles []string) (string, error) {
	now := time.Now()
	claims := Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    m.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.AccessTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.Secret)
}

func (m *Manager) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return m.Secret, nil
	}, jwt.WithIssuer(m.Issuer))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Resolve turns a bearer token into an Actor.
func (m *Manager) Resolve(tokenStr string) (Actor, error) {
	claims, err := m.Parse(tokenStr)
	if err != nil {
		return Actor{}, err
	}
	if claims.Subject == "" {
		return Actor{}, ErrInvalidToken
	}
	return Actor{UserID: claims.Subject, Roles: claims.Roles}, nil
}
