// Package actortoken issues and validates the bearer tokens that carry an
// actor identity into the ledger host.
package actortoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"reliefledger/internal/ledger"
	dErrors "reliefledger/pkg/domain-errors"
)

// Claims are the registered JWT claims. Subject holds the actor identity and
// ID (jti) is used for revocation.
type Claims struct {
	jwt.RegisteredClaims
}

// Actor returns the actor identity carried in the subject claim.
func (c *Claims) Actor() ledger.Actor {
	return ledger.Actor(c.Subject)
}

// Issued describes a freshly signed token.
type Issued struct {
	Token     string    `json:"token"`
	JTI       string    `json:"jti"`
	Actor     string    `json:"actor"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Service struct {
	signingKey []byte
	issuer     string
	clock      func() time.Time
}

type Option func(*Service)

func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func NewService(signingKey, issuer string, opts ...Option) *Service {
	s := &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue signs an HS256 token for actor that expires after ttl.
func (s *Service) Issue(actor ledger.Actor, ttl time.Duration) (Issued, error) {
	if actor == "" {
		return Issued{}, dErrors.New(dErrors.CodeValidation, "actor is required")
	}
	if ttl <= 0 {
		return Issued{}, dErrors.New(dErrors.CodeValidation, "ttl must be positive")
	}
	now := s.clock()
	expiresAt := now.Add(ttl)
	jti := uuid.NewString()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(actor),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        jti,
		},
	})
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return Issued{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}
	return Issued{
		Token:     signed,
		JTI:       jti,
		Actor:     string(actor),
		ExpiresAt: expiresAt,
	}, nil
}

// Validate verifies the signature, issuer and expiry of token.
func (s *Service) Validate(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.clock),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	if claims.Subject == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token carries no actor")
	}
	if claims.ID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token carries no jti")
	}
	return claims, nil
}
