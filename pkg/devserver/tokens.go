package devserver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var errInvalidToken = errors.New("devserver: invalid token")

// Claims carried by access tokens. user_id duplicates sub for clients that
// only read the former.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

type tokenPair struct {
	Access  string
	Refresh string
}

// tokens issues HS256 access tokens and opaque single-use refresh tokens.
type tokens struct {
	secret        []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	cost          int
	now           func() time.Time
	store         *Store
}

func (t *tokens) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), t.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func (t *tokens) check(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (t *tokens) issue(ctx context.Context, u user) (tokenPair, error) {
	now := t.now()
	claims := Claims{
		UserID: u.ID,
		Email:  u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.accessExpiry)),
		},
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return tokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh := uuid.NewString()
	if err := t.store.SaveRefreshToken(ctx, refresh, u.ID, now.Add(t.refreshExpiry)); err != nil {
		return tokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}
	return tokenPair{Access: access, Refresh: refresh}, nil
}

func (t *tokens) validate(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID == "" {
		return nil, errInvalidToken
	}
	return claims, nil
}

// rotate trades a refresh token for a fresh pair.
func (t *tokens) rotate(ctx context.Context, refresh string) (user, tokenPair, error) {
	userID, err := t.store.ConsumeRefreshToken(ctx, refresh)
	if err != nil {
		return user{}, tokenPair{}, errInvalidToken
	}
	u, err := t.store.UserByID(ctx, userID)
	if err != nil {
		return user{}, tokenPair{}, errInvalidToken
	}
	pair, err := t.issue(ctx, u)
	return u, pair, err
}
