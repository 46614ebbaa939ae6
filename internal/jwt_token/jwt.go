package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// RoleParticipant is the default role carried by participant tokens.
// RoleSafety marks the safety collaborator credential that may submit
// slashing instructions.
const (
	RoleParticipant = "participant"
	RoleSafety      = "safety"
)

// Claims are the access-token claims. The subject is the participant ID.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// ParticipantID returns the token subject.
func (c *Claims) ParticipantID() string { return c.Subject }

// Service handles JWT creation and validation.
type Service struct {
	signingKey []byte
	issuer     string
}

func NewService(signingKey, issuer string) *Service {
	return &Service{signingKey: []byte(signingKey), issuer: issuer}
}

// GenerateToken signs a token for the given subject and role.
func (s *Service) GenerateToken(subject, role string, expiresIn time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.signingKey)
}

var errInvalidToken = errors.New("invalid token")

// ValidateToken parses and verifies a signed token.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil || !parsed.Valid {
		return nil, errInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, errInvalidToken
	}
	return claims, nil
}
