// Package auth verifies bearer tokens and turns them into principals.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"threadbox/internal/access"
	"threadbox/pkg/apperr"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = fmt.Errorf("%w: invalid token", apperr.ErrUnauthorized)

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for the given principal.
func (i *Issuer) Issue(p access.Principal) (string, error) {
	now := i.now()
	claims := Claims{
		Role: string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(p.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

func (i *Issuer) Parse(tokenString string) (access.Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return access.Principal{}, fmt.Errorf("%w: token expired", apperr.ErrUnauthorized)
		}
		return access.Principal{}, ErrInvalidToken
	}
	if !token.Valid {
		return access.Principal{}, ErrInvalidToken
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return access.Principal{}, ErrInvalidToken
	}
	role := access.Role(claims.Role)
	if !role.Valid() {
		return access.Principal{}, ErrInvalidToken
	}
	return access.Principal{ID: id, Role: role}, nil
}
