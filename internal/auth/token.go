package auth

import (
	"errors"
	"time"

	"kioskpos/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenMalformed = errors.New("auth: token malformed or signature invalid")
	ErrTokenExpired   = errors.New("auth: token expired")
)

// Identity is what a verified token says about its bearer.
type Identity struct {
	SubjectID string
	// Role is empty when the token carries no role claim.
	Role model.Role
}

// Claims are the custom claims embedded in every access token.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 tokens. The secret is loaded once at
// startup; rotating it invalidates every outstanding token.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret), now: time.Now}
}

// WithClock replaces the time source, for tests.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

// Issue signs {sub, role, iat, exp = iat + ttl}.
func (s *TokenService) Issue(subjectID string, role model.Role, ttl time.Duration) (string, error) {
	issuedAt := s.now()
	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks signature, algorithm and expiry. A token is expired once now >= exp.
func (s *TokenService) Verify(raw string) (*Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Join(ErrTokenMalformed, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrTokenMalformed
	}

	id := &Identity{SubjectID: claims.Subject}
	if claims.Role != "" {
		role, ok := model.ParseRole(claims.Role)
		if !ok {
			return nil, ErrTokenMalformed
		}
		id.Role = role
	}
	return id, nil
}
