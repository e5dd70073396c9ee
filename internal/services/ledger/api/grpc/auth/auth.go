// Package auth resolves the calling account of a gRPC request.
//
// With a verification key configured, callers present an EdDSA-signed JWT
// whose subject is their account address. Without one, the ledger runs in
// trusted mode and takes the caller from the x-goldtoken-caller header,
// which suits deployments where a gateway has already authenticated it.
package auth

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/ethereum/go-ethereum/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/louisbranch/goldtoken/internal/platform/errors"
	"github.com/louisbranch/goldtoken/internal/platform/requestctx"
	grpcmeta "github.com/louisbranch/goldtoken/internal/services/ledger/api/grpc/metadata"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/address"
	"google.golang.org/grpc"
)

const authorizationHeader = "authorization"

// callerTokenEnv holds raw env values before post-parse validation.
type callerTokenEnv struct {
	Issuer    string `env:"GOLDTOKEN_CALLER_TOKEN_ISSUER" envDefault:"goldtoken"`
	Audience  string `env:"GOLDTOKEN_CALLER_TOKEN_AUDIENCE" envDefault:"goldtoken-ledger"`
	PublicKey string `env:"GOLDTOKEN_CALLER_TOKEN_PUBLIC_KEY"`
}

// Config defines how caller tokens are verified. A nil Key selects trusted
// header mode.
type Config struct {
	Issuer   string
	Audience string
	Key      ed25519.PublicKey
	Now      func() time.Time
}

// Enabled reports whether token verification is configured.
func (c Config) Enabled() bool { return len(c.Key) == ed25519.PublicKeySize }

// Claims captures validated caller token claims.
type Claims struct {
	Caller    common.Address
	Issuer    string
	ExpiresAt time.Time
	JWTID     string
}

type callerClaims struct {
	jwt.RegisteredClaims
}

// LoadConfigFromEnv reads caller token verification settings. An unset
// public key is valid and selects trusted header mode.
func LoadConfigFromEnv(now func() time.Time) (Config, error) {
	var raw callerTokenEnv
	if err := env.Parse(&raw); err != nil {
		return Config{}, fmt.Errorf("parse caller token env: %w", err)
	}
	if now == nil {
		now = time.Now
	}
	cfg := Config{
		Issuer:   strings.TrimSpace(raw.Issuer),
		Audience: strings.TrimSpace(raw.Audience),
		Now:      now,
	}
	publicKey := strings.TrimSpace(raw.PublicKey)
	if publicKey == "" {
		return cfg, nil
	}
	keyBytes, err := DecodeKey(publicKey)
	if err != nil {
		return Config{}, fmt.Errorf("decode caller token public key: %w", err)
	}
	if len(keyBytes) != ed25519.PublicKeySize {
		return Config{}, fmt.Errorf("caller token public key must be %d bytes", ed25519.PublicKeySize)
	}
	if cfg.Issuer == "" || cfg.Audience == "" {
		return Config{}, errors.New("caller token issuer and audience are required")
	}
	cfg.Key = ed25519.PublicKey(keyBytes)
	return cfg, nil
}

// ValidateCallerToken verifies token and returns its claims.
func ValidateCallerToken(token string, cfg Config) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, unauthenticated("caller token is required")
	}
	if !cfg.Enabled() || cfg.Issuer == "" || cfg.Audience == "" {
		return Claims{}, errors.New("caller token verifier is not configured")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	var parsed callerClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return cfg.Key, nil
	},
		jwt.WithValidMethods([]string{"EdDSA"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return Claims{}, mapJWTError(err)
	}

	if parsed.Issuer != cfg.Issuer {
		return Claims{}, mismatch("issuer")
	}
	if !audienceContains(parsed.Audience, cfg.Audience) {
		return Claims{}, mismatch("audience")
	}
	if parsed.ExpiresAt == nil {
		return Claims{}, unauthenticated("caller token exp is required")
	}
	now := cfg.Now().UTC()
	exp := parsed.ExpiresAt.Time.UTC()
	if !exp.After(now) {
		return Claims{}, unauthenticated("caller token is expired")
	}
	if parsed.NotBefore != nil && now.Before(parsed.NotBefore.Time.UTC()) {
		return Claims{}, unauthenticated("caller token not active yet")
	}

	caller, err := address.Parse(parsed.Subject)
	if err != nil || address.IsZero(caller) {
		return Claims{}, mismatch("subject")
	}
	return Claims{Caller: caller, Issuer: parsed.Issuer, ExpiresAt: exp, JWTID: parsed.ID}, nil
}

// Signer issues caller tokens. ledgerctl and tests use it; the ledger
// itself only verifies.
type Signer struct {
	Issuer   string
	Audience string
	Key      ed25519.PrivateKey
	TTL      time.Duration
	Now      func() time.Time
}

// Sign returns a compact JWT naming caller as its subject.
func (s Signer) Sign(caller common.Address) (string, error) {
	if len(s.Key) != ed25519.PrivateKeySize {
		return "", errors.New("caller token signing key is not configured")
	}
	if address.IsZero(caller) {
		return "", errors.New("caller token subject must be non-zero")
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	ttl := s.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	issued := now().UTC()
	claims := callerClaims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    s.Issuer,
		Subject:   address.Key(caller),
		Audience:  jwt.ClaimStrings{s.Audience},
		IssuedAt:  jwt.NewNumericDate(issued),
		NotBefore: jwt.NewNumericDate(issued),
		ExpiresAt: jwt.NewNumericDate(issued.Add(ttl)),
		ID:        uuid.NewString(),
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(s.Key)
	if err != nil {
		return "", fmt.Errorf("sign caller token: %w", err)
	}
	return signed, nil
}

// UnaryServerInterceptor stores the authenticated caller in the request
// context. Calls that present no credentials proceed without a caller, so
// queries stay open while commands fail in the handler. Credentials that
// are present but invalid end the call with UNAUTHENTICATED.
func UnaryServerInterceptor(cfg Config) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		caller, ok, err := resolveCaller(ctx, cfg)
		if err != nil {
			return nil, apperrors.HandleError(err, grpcmeta.IncomingValue(ctx, grpcmeta.LocaleHeader))
		}
		if ok {
			ctx = requestctx.WithCaller(ctx, caller)
		}
		return handler(ctx, req)
	}
}

func resolveCaller(ctx context.Context, cfg Config) (common.Address, bool, error) {
	if !cfg.Enabled() {
		caller, ok, err := grpcmeta.CallerFromIncoming(ctx)
		if err != nil {
			return common.Address{}, false, apperrors.Wrap(apperrors.CodeUnauthenticated, "malformed caller header", err)
		}
		return caller, ok, nil
	}
	raw := grpcmeta.IncomingValue(ctx, authorizationHeader)
	if raw == "" {
		return common.Address{}, false, nil
	}
	token, found := strings.CutPrefix(raw, "Bearer ")
	if !found {
		return common.Address{}, false, unauthenticated("authorization must be a bearer token")
	}
	claims, err := ValidateCallerToken(token, cfg)
	if err != nil {
		return common.Address{}, false, err
	}
	return claims.Caller, true, nil
}

func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrEd25519Verification):
		return unauthenticated("caller token signature is invalid")
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return unauthenticated("caller token alg is invalid")
	}
	return unauthenticated("caller token is invalid")
}

func unauthenticated(msg string) error {
	return apperrors.New(apperrors.CodeUnauthenticated, msg)
}

func mismatch(field string) error {
	return apperrors.WithMetadata(apperrors.CodeUnauthenticated, "caller token "+field+" mismatch", map[string]string{"Field": field})
}

func audienceContains(aud jwt.ClaimStrings, value string) bool {
	for _, item := range aud {
		if item == value {
			return true
		}
	}
	return false
}

// DecodeKey accepts raw or padded standard base64.
func DecodeKey(value string) ([]byte, error) {
	if value == "" {
		return nil, errors.New("empty base64 value")
	}
	decoded, err := base64.RawStdEncoding.DecodeString(value)
	if err == nil {
		return decoded, nil
	}
	return base64.StdEncoding.DecodeString(value)
}
