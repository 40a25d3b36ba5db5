package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Role is the coarse authorization level carried in a token
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// JWTClaims represents the claims in a JWT token
type JWTClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
	jwt.RegisteredClaims
}

// HasRole reports whether the token grants role. Admins hold every role.
func (c *JWTClaims) HasRole(role Role) bool {
	return c.Role == role || c.Role == RoleAdmin
}

// Identity is what a token is issued for
type Identity struct {
	UserID uint
	Email  string
	Name   string
	Role   Role
}

func generateToken(secret []byte, expiry time.Duration, id Identity) (string, error) {
	now := time.Now()
	role := id.Role
	if role == "" {
		role = RoleStudent
	}

	claims := &JWTClaims{
		UserID: id.UserID,
		Email:  id.Email,
		Name:   id.Name,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func validateToken(secret []byte, tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&JWTClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return secret, nil
		},
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
