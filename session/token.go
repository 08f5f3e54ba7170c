package session

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"Gin_postgres_redis_tsd_control/models"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the bearer-token form of the current user; sub holds the user id.
type Claims struct {
	Role      models.Role `json:"role"`
	CompanyID *uint       `json:"company_id,omitempty"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies HS256 bearer tokens.
type Tokens struct {
	secret []byte
}

func NewTokens(secret string) *Tokens { return &Tokens{secret: []byte(secret)} }

func (t *Tokens) Sign(u models.CurrentUser, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Role:      u.Role,
		CompanyID: u.CompanyID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(u.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

func (t *Tokens) Verify(raw string) (models.CurrentUser, error) {
	var claims Claims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return models.CurrentUser{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return models.CurrentUser{}, fmt.Errorf("%w: bad subject %q", ErrInvalidToken, claims.Subject)
	}
	if !claims.Role.Valid() {
		return models.CurrentUser{}, fmt.Errorf("%w: bad role %q", ErrInvalidToken, claims.Role)
	}
	return models.CurrentUser{ID: uint(id), Role: claims.Role, CompanyID: claims.CompanyID}, nil
}
