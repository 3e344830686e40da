package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/domain/entity"
	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/domain/repository"
	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/logger"
)

// AuthService authentifie les comptes autorité. Les citoyens qui postent des
// signalements restent anonymes et ne passent jamais par ici; seuls les
// changements de statut (RESOLVED, REJECTED...) exigent un compte.
type AuthService interface {
	Register(ctx context.Context, username, password string, role entity.UserRole) (*entity.User, error)
	Login(ctx context.Context, username, password string) (string, error)
	ValidateToken(tokenString string) (*jwt.MapClaims, error)
}

// ErrUserStoreUnavailable est retourné quand la base des comptes est
// injoignable (mode dégradé): les endpoints auth refusent proprement au lieu
// de paniquer.
var ErrUserStoreUnavailable = errors.New("user store unavailable")

type authService struct {
	userRepo  repository.UserRepository // nil = base injoignable au démarrage
	jwtSecret []byte
}

func NewAuthService(userRepo repository.UserRepository, jwtSecret string) AuthService {
	if jwtSecret == "" {
		logger.Warning("JWT_SECRET non défini, clé par défaut (DEV UNIQUEMENT)")
		jwtSecret = "super-secret-key-change-in-prod"
	}
	return &authService{
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
	}
}

func (s *authService) Register(ctx context.Context, username, password string, role entity.UserRole) (*entity.User, error) {
	if s.userRepo == nil {
		return nil, ErrUserStoreUnavailable
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	if role == "" {
		role = entity.RoleAuthority
	}

	user := &entity.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: string(hashedPassword),
		Role:         role,
		CreatedAt:    time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *authService) Login(ctx context.Context, username, password string) (string, error) {
	if s.userRepo == nil {
		return "", ErrUserStoreUnavailable
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", errors.New("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", errors.New("invalid credentials")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID,
		"role": user.Role,
		"exp":  time.Now().Add(time.Hour * 24).Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", err
	}

	_ = s.userRepo.UpdateLastLogin(ctx, user.ID)

	return tokenString, nil
}

func (s *authService) ValidateToken(tokenString string) (*jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return &claims, nil
	}

	return nil, errors.New("invalid token")
}
