package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/schedr/schedr-api/internal/config"
	"github.com/schedr/schedr-api/internal/platform/logger"
)

// shareTokenType tags share-link claims so tokens minted for other purposes
// can never be replayed as share links.
const shareTokenType = "share"

// ShareTokenService defines operations for schedule share-link tokens:
// stateless, signed, expiring references to a single schedule.
type ShareTokenService interface {
	// Generate creates a signed share token for the given schedule.
	Generate(ctx context.Context, scheduleID uuid.UUID) (string, error)

	// Validate checks a share token and returns the schedule ID it grants
	// read access to. Returns ErrInvalidShareToken or ErrExpiredShareToken
	// on failure.
	Validate(ctx context.Context, tokenString string) (uuid.UUID, error)
}

// hmacShareTokenService is an implementation of ShareTokenService using
// HMAC-SHA256 signed JWTs.
type hmacShareTokenService struct {
	signingKey []byte
	ttl        time.Duration
	timeFunc   func() time.Time // injectable for testing
	clockSkew  time.Duration    // allowed drift when validating time claims
}

// shareClaims defines the structure of share-link JWT claims.
type shareClaims struct {
	ScheduleID uuid.UUID `json:"sid"`
	TokenType  string    `json:"type"`
	jwt.RegisteredClaims
}

// Ensure hmacShareTokenService implements ShareTokenService interface
var _ ShareTokenService = (*hmacShareTokenService)(nil)

// NewShareTokenService creates a new share token service using HMAC-SHA256
// signing with the secret and TTL from configuration.
func NewShareTokenService(cfg config.AuthConfig) (ShareTokenService, error) {
	if len(cfg.ShareLinkSecret) < 32 {
		return nil, fmt.Errorf("share link secret must be at least 32 characters")
	}

	return &hmacShareTokenService{
		signingKey: []byte(cfg.ShareLinkSecret),
		ttl:        time.Duration(cfg.ShareLinkTTLMinutes) * time.Minute,
		timeFunc:   time.Now,
		clockSkew:  2 * time.Minute,
	}, nil
}

// Generate implements ShareTokenService.Generate
func (s *hmacShareTokenService) Generate(
	ctx context.Context,
	scheduleID uuid.UUID,
) (string, error) {
	log := logger.FromContext(ctx)
	now := s.timeFunc()

	claims := shareClaims{
		ScheduleID: scheduleID,
		TokenType:  shareTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   scheduleID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(s.signingKey)
	if err != nil {
		log.Error("failed to sign share token",
			"error", err,
			"schedule_id", scheduleID)
		return "", fmt.Errorf("failed to sign share token: %w", err)
	}

	return signedToken, nil
}

// Validate implements ShareTokenService.Validate
func (s *hmacShareTokenService) Validate(
	ctx context.Context,
	tokenString string,
) (uuid.UUID, error) {
	log := logger.FromContext(ctx)
	now := s.timeFunc()

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(s.clockSkew),
		jwt.WithTimeFunc(func() time.Time {
			return now
		}),
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&shareClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.signingKey, nil
		},
		parserOpts...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			log.Debug("share token validation failed: token expired")
			return uuid.Nil, ErrExpiredShareToken
		}
		log.Debug("share token validation failed",
			"error_type", fmt.Sprintf("%T", err))
		return uuid.Nil, ErrInvalidShareToken
	}

	claims, ok := token.Claims.(*shareClaims)
	if !ok || !token.Valid {
		return uuid.Nil, ErrInvalidShareToken
	}

	if claims.TokenType != shareTokenType {
		log.Debug("share token validation failed: wrong token type",
			"expected", shareTokenType,
			"actual", claims.TokenType)
		return uuid.Nil, ErrInvalidShareToken
	}

	if claims.ScheduleID == uuid.Nil {
		return uuid.Nil, ErrInvalidShareToken
	}

	return claims.ScheduleID, nil
}
