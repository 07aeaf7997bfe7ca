package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/comptrack/comptrack-backend/internal/data/repos"
	types "github.com/comptrack/comptrack-backend/internal/domain"
	"github.com/comptrack/comptrack-backend/internal/platform/dbctx"
	"github.com/comptrack/comptrack-backend/internal/platform/logger"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInactiveUser       = errors.New("account is deactivated")
)

type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*types.User, error)
	Login(ctx context.Context, email, password string) (*types.User, string, error)
	ParseToken(ctx context.Context, tokenString string) (uuid.UUID, error)
	AccessTTL() time.Duration
}

type authService struct {
	db        *gorm.DB
	log       *logger.Logger
	users     repos.UserRepo
	secretKey []byte
	accessTTL time.Duration
}

func NewAuthService(db *gorm.DB, baseLog *logger.Logger, users repos.UserRepo, secretKey string, accessTTL time.Duration) AuthService {
	return &authService{
		db:        db,
		log:       baseLog.With("service", "AuthService"),
		users:     users,
		secretKey: []byte(secretKey),
		accessTTL: accessTTL,
	}
}

func (s *authService) Register(ctx context.Context, name, email, password string) (*types.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if name == "" || email == "" || len(password) < 8 {
		return nil, errors.New("name, email and a password of at least 8 characters are required")
	}

	dbc := dbctx.Context{Ctx: ctx}
	if _, err := s.users.GetByEmail(dbc, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &types.User{
		ID:       uuid.New(),
		Name:     name,
		Email:    email,
		Password: string(hash),
		Role:     "user",
		IsActive: true,
	}
	if _, err := s.users.Create(dbc, []*types.User{user}); err != nil {
		return nil, err
	}
	s.log.Info("user registered", "user_id", user.ID, "email", email)
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*types.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	dbc := dbctx.Context{Ctx: ctx}

	user, err := s.users.GetByEmail(dbc, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}
	if !user.IsActive {
		return nil, "", ErrInactiveUser
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	if err := s.users.TouchLastActive(dbc, user.ID); err != nil {
		s.log.Warn("failed to touch last_active", "user_id", user.ID, "error", err)
	}
	return user, token, nil
}

func (s *authService) issueToken(user *types.User) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *authService) ParseToken(_ context.Context, tokenString string) (uuid.UUID, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secretKey, nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid {
		return uuid.Nil, errors.New("invalid token")
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid subject: %w", err)
	}
	return id, nil
}

func (s *authService) AccessTTL() time.Duration { return s.accessTTL }
