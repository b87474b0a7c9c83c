package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

type Claims struct {
	UserID string `json:"id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type JWTUtil struct {
	secret string
	ttl    time.Duration
}

func NewJWTUtil(secret string, ttl time.Duration) *JWTUtil {
	return &JWTUtil{secret: secret, ttl: ttl}
}

func (j *JWTUtil) TTL() time.Duration {
	return j.ttl
}

func (j *JWTUtil) GenerateToken(userID, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.secret))
}

func (j *JWTUtil) ValidateToken(tokenString string) (*Claims, error) {
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(j.secret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

func blacklistKey(tokenID string) string {
	return fmt.Sprintf("blacklist:%s", tokenID)
}

// Blacklist revokes the token until its natural expiry.
func (j *JWTUtil) Blacklist(ctx context.Context, claims *Claims, redis *RedisClient) error {
	if redis == nil || claims.ExpiresAt == nil {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	return redis.Set(ctx, blacklistKey(claims.ID), true, ttl)
}

func (j *JWTUtil) IsTokenBlacklisted(ctx context.Context, claims *Claims, redis *RedisClient) bool {
	if redis == nil {
		return false
	}
	var blacklisted bool
	err := redis.Get(ctx, blacklistKey(claims.ID), &blacklisted)
	return err == nil && blacklisted
}
