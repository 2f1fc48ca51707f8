package service

import (
	"context"
	"errors"
	"time"

	"github.com/darielruizg/Puntodeventa/internal/config"
	"github.com/darielruizg/Puntodeventa/internal/dto"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ErrCredenciales is returned for any failed login, without saying which
// part was wrong.
var ErrCredenciales = errors.New("credenciales invalidas")

// AuthService authenticates the single terminal operator configured in
// OPERADOR_USUARIO / OPERADOR_PASSWORD_HASH.
type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
}

type authService struct {
	cfg *config.Config
}

func NewAuthService(cfg *config.Config) AuthService {
	return &authService{cfg: cfg}
}

func (s *authService) Login(_ context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	if s.cfg.OperadorPasswordHash == "" || req.Username != s.cfg.OperadorUsuario {
		return nil, ErrCredenciales
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.OperadorPasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrCredenciales
	}

	token, err := s.generateToken(req.Username, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   s.cfg.JWTExpirationHours * 3600,
		Username:    req.Username,
	}, nil
}

func (s *authService) generateToken(username string, duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"username": username,
		"rol":      "operador",
		"exp":      time.Now().Add(duration).Unix(),
		"iat":      time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}
