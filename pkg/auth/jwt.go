package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v4"
)

// JWTCustomClaims содержит пользовательские поля для токена.
// Токены выпускает внешний identity-сервис, здесь только разбор и проверка.
type JWTCustomClaims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// IsAdmin сообщает, что токен принадлежит администратору/преподавателю
func (c *JWTCustomClaims) IsAdmin() bool {
	return c.Role == "admin" || c.Role == "teacher"
}

// JWTService предоставляет методы для проверки JWT
type JWTService struct {
	secret []byte
}

// NewJWTService создает новый сервис JWT и возвращает ошибку при проблемах
func NewJWTService(secret string) (*JWTService, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret is required for JWTService")
	}
	return &JWTService{secret: []byte(secret)}, nil
}

// ValidateToken разбирает и проверяет токен, возвращая claims
func (s *JWTService) ValidateToken(tokenString string) (*JWTCustomClaims, error) {
	claims := &JWTCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Принимаем только HMAC: подмена алгоритма на none/RS256 отбрасывается
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.UserID == 0 {
		return nil, errors.New("token has no user_id claim")
	}
	return claims, nil
}
