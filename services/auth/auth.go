// Package auth issues and verifies bearer tokens and checks login credentials.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"library/apperrors"
	"library/models"
	"library/storage"
	"library/utils"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Password is the only password login accepts.
// TODO: store password hashes on users and compare with bcrypt instead.
const Password = "secret"

// ErrEmptySecret is returned by NewService without a signing secret
var ErrEmptySecret = errors.New("auth: signing secret is empty")

// Claims are carried inside every token
type Claims struct {
	Username string `json:"username"`
	ID       string `json:"id"`
	jwt.RegisteredClaims
}

// Service is the auth gateway. Tokens never expire.
type Service struct {
	secret []byte
	store  storage.Store
	now    func() time.Time
}

func NewService(secret string, store storage.Store) (*Service, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &Service{secret: []byte(secret), store: store, now: time.Now}, nil
}

// IssueToken signs a HS256 token for user
func (s *Service) IssueToken(user *models.User) (string, error) {
	claims := Claims{
		Username: user.Username,
		ID:       user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(s.now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken checks signature and structure only, the store is not consulted
func (s *Service) VerifyToken(ctx context.Context, token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, apperrors.NewInvalidTokenError(ctx, err)
	}
	if !parsed.Valid || claims.ID == "" {
		return nil, apperrors.NewInvalidTokenError(ctx, errors.New("token has no user id"))
	}
	return claims, nil
}

// Login returns a fresh token. The error does not tell which of username
// or password was wrong.
func (s *Service) Login(ctx context.Context, username, password string) (*models.Token, error) {
	user, err := s.store.FindUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil || password != Password {
		utils.Logger.Debug("Login rejected", zap.String("username", username))
		return nil, apperrors.NewInvalidCredentialsError(ctx)
	}

	value, err := s.IssueToken(user)
	if err != nil {
		return nil, err
	}
	return &models.Token{Value: value}, nil
}

// CurrentUser verifies token and loads its user. A valid token whose user
// is gone yields (nil, nil).
func (s *Service) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.VerifyToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.store.FindUserByID(ctx, claims.ID)
}
