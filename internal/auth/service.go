package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fdg312/lifeos/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrTokenExpired  = errors.New("token expired")
	ErrDevAuthClosed = errors.New("dev auth is disabled")
)

// Service: выпуск и проверка HS256 токенов
type Service struct {
	config *config.Config
	now    func() time.Time
}

func NewService(cfg *config.Config) *Service {
	return &Service{config: cfg, now: time.Now}
}

// SignInDev: токен для userID (или DEFAULT_USER_ID), только при AUTH_MODE=dev
func (s *Service) SignInDev(userID string) (*DevAuthResponse, error) {
	if s.config.AuthMode != "dev" {
		return nil, ErrDevAuthClosed
	}

	userID = strings.TrimSpace(userID)
	if userID == "" {
		userID = s.config.DefaultUserID
	}

	ttl := s.ttl()
	token, err := s.IssueToken(userID, ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to generate dev JWT: %w", err)
	}

	return &DevAuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(ttl.Seconds()),
		UserID:      userID,
	}, nil
}

func (s *Service) ttl() time.Duration {
	minutes := s.config.JWTTTLMinutes
	if minutes <= 0 {
		minutes = 10080
	}
	return time.Duration(minutes) * time.Minute
}

func (s *Service) IssueToken(userID string, ttl time.Duration) (string, error) {
	now := s.now()

	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    s.config.JWTIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// VerifyJWT возвращает sub из валидного токена
func (s *Service) VerifyJWT(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	},
		jwt.WithIssuer(s.config.JWTIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrInvalidToken
	}

	if !token.Valid || strings.TrimSpace(claims.Subject) == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
