// Package auth は管理者認証を提供する。
//
// 管理者は単一ユーザー（subject "admin"）で、環境変数のパスワードと
// 照合して署名付きJWTを発行する。APIの保護はBearerトークンで行う。
package auth

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/credman/internal/model"
)

// adminSubject は管理者トークンのsubjectクレーム。
const adminSubject = "admin"

// Service は管理者のログインとトークン検証を提供する。
type Service struct {
	adminPassword string
	secret        []byte
	tokenTTL      time.Duration
	logger        *slog.Logger
	now           func() time.Time
}

// NewService はServiceを生成する。
func NewService(adminPassword, secret string, tokenTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{
		adminPassword: adminPassword,
		secret:        []byte(secret),
		tokenTTL:      tokenTTL,
		logger:        logger,
		now:           time.Now,
	}
}

// Login はパスワードを照合し、成功時に署名付きトークンを返す。
// 比較はタイミング攻撃を避けるため定数時間で行う。
func (s *Service) Login(password string) (string, error) {
	if subtle.ConstantTimeCompare([]byte(password), []byte(s.adminPassword)) != 1 {
		s.logger.Warn("admin login rejected")
		return "", model.NewInvalidCredentialsError()
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   adminSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		s.logger.Error("failed to sign auth token", slog.String("error", err.Error()))
		return "", model.NewPersistenceError()
	}

	s.logger.Info("admin login succeeded")
	return signed, nil
}

// VerifyToken はBearerトークンを検証し、subjectを返す。
// 署名不正・期限切れ・アルゴリズム不一致は全て認証エラーとして扱う。
func (s *Service) VerifyToken(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !token.Valid {
		return "", model.NewUnauthorizedError()
	}
	if claims.Subject != adminSubject {
		return "", model.NewUnauthorizedError()
	}
	return claims.Subject, nil
}
