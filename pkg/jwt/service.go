package jwt

import (
	"time"
)

const devSecret = "devJwtSecretDoNotUseInProduction"

// Service is a wrapper for JWT operations
type Service struct {
	secretKey []byte
	expiry    time.Duration
}

// NewService creates a new JWT service
func NewService(secretKey string, expiry time.Duration) *Service {
	if secretKey == "" {
		secretKey = devSecret
	}

	if expiry == 0 {
		expiry = 24 * time.Hour
	}

	return &Service{
		secretKey: []byte(secretKey),
		expiry:    expiry,
	}
}

// GenerateToken generates a JWT token for a user
func (s *Service) GenerateToken(id Identity) (string, error) {
	return generateToken(s.secretKey, s.expiry, id)
}

// ValidateToken validates a JWT token and returns the claims
func (s *Service) ValidateToken(tokenString string) (*JWTClaims, error) {
	return validateToken(s.secretKey, tokenString)
}

// Expiry returns the lifetime of issued tokens
func (s *Service) Expiry() time.Duration {
	return s.expiry
}
