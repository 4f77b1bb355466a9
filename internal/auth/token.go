package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the signed payload of a bearer token: subject and expiry.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenService issues and validates HS256 identity assertions. It holds no
// state beyond the signing secret and the validity window.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock returns a copy of the service reading time from now.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	cp := *s
	cp.now = now
	return &cp
}

// Issue signs a token for subject that expires one validity window from now.
func (s *TokenService) Issue(subject string) (string, Identity, error) {
	if subject == "" {
		return "", Identity{}, errors.New("empty subject")
	}
	issuedAt := s.now()
	exp := issuedAt.Add(s.ttl)

	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(exp),
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", Identity{}, err
	}
	return signed, Identity{Subject: subject, ExpiresAt: exp.Truncate(time.Second)}, nil
}

// Validate checks signature, algorithm and expiry and returns the identity the
// token asserts.
func (s *TokenService) Validate(raw string) (Identity, error) {
	var claims Claims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return Identity{}, err
	}
	if !tok.Valid {
		return Identity{}, jwt.ErrTokenInvalidClaims
	}
	if claims.Subject == "" {
		return Identity{}, jwt.ErrTokenInvalidSubject
	}
	return Identity{Subject: claims.Subject, ExpiresAt: claims.ExpiresAt.Time}, nil
}
