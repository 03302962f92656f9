// Package auth is the identity collaborator: it issues and verifies the
// session tokens that tell the engine who the caller is and in which role.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/apperr"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/user"
)

const issuer = "voxiscribe"

type Service struct {
	hmac []byte
	ttl  time.Duration
}

func NewService(secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &Service{hmac: []byte(secret), ttl: ttl}
}

type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"` // "teacher" or "student"
	jwt.RegisteredClaims
}

// Issue signs a token for u. The subject is the user id.
func (a *Service) Issue(u user.User) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(a.ttl)
	claims := &Claims{
		Username: u.Username,
		Role:     string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(a.hmac)
	return s, exp, err
}

// Parse verifies a token and returns the identity it carries.
func (a *Service) Parse(tokenStr string) (Identity, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.hmac, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		if err == nil {
			err = errors.New("invalid token")
		}
		return Identity{}, fmt.Errorf("%v: %w", err, apperr.ErrUnauthorized)
	}
	c, _ := token.Claims.(*Claims)
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return Identity{}, fmt.Errorf("bad subject: %w", apperr.ErrUnauthorized)
	}
	role := user.Role(c.Role)
	if !role.Valid() {
		return Identity{}, fmt.Errorf("bad role: %w", apperr.ErrUnauthorized)
	}
	return Identity{UserID: id, Username: c.Username, Role: role}, nil
}
