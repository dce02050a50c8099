package authtoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "tracelink/pkg/domain"
	dErrors "tracelink/pkg/domain-errors"
)

const (
	issuer   = "tracelink"
	audience = "tracelink-api"
)

// Claims are the JWT claims carried by actor tokens. Subject holds the
// participant id.
type Claims struct {
	jwt.RegisteredClaims
}

// Service mints and validates HS256 actor tokens.
type Service struct {
	signingKey []byte
}

func NewService(signingKey string) *Service {
	return &Service{signingKey: []byte(signingKey)}
}

// MintToken issues a signed token identifying the participant.
func (s *Service) MintToken(actor id.ParticipantID, expiresIn time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    issuer,
			Audience:  []string{audience},
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.signingKey)
}

// ValidateToken parses and verifies a token, returning the participant it
// identifies.
func (s *Service) ValidateToken(tokenString string) (id.ParticipantID, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(issuer), jwt.WithAudience(audience))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return id.ParticipantID{}, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return id.ParticipantID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return id.ParticipantID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return id.ParseParticipantID(claims.Subject)
}
