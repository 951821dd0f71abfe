package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/rentease/rentease-backend/pkg/config"
)

// clockSkew tolerates small drift between API replicas when checking exp and iat.
const clockSkew = 30 * time.Second

var (
	jwtSigningMethod = jwt.SigningMethodHS256

	ErrSubjectMismatch = errors.New("token subject does not match user id")
	ErrInvalidRole     = errors.New("token carries an unknown role")
)

// MintAccessToken issues a signed JWT for payload that expires after the configured TTL.
func MintAccessToken(cfg config.JWTConfig, now time.Time, payload AccessTokenPayload) (string, error) {
	switch {
	case cfg.Secret == "":
		return "", fmt.Errorf("jwt secret is required")
	case cfg.Issuer == "":
		return "", fmt.Errorf("jwt issuer is required")
	case cfg.ExpirationMinutes <= 0:
		return "", fmt.Errorf("jwt expiration minutes must be positive")
	case !payload.Role.IsValid():
		return "", fmt.Errorf("invalid role %q", payload.Role)
	case payload.UserID == uuid.Nil:
		return "", fmt.Errorf("user id is required")
	}

	jti := strings.TrimSpace(payload.JTI)
	if jti == "" {
		jti = uuid.NewString()
	}

	claims := AccessTokenClaims{
		UserID: payload.UserID,
		Email:  payload.Email,
		Role:   payload.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   payload.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(cfg.ExpirationMinutes) * time.Minute)),
			ID:        jti,
		},
	}

	signed, err := jwt.NewWithClaims(jwtSigningMethod, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// ParseAccessToken validates signature, issuer and expiry and returns typed claims.
func ParseAccessToken(cfg config.JWTConfig, tokenString string) (*AccessTokenClaims, error) {
	return parse(cfg, tokenString, jwt.WithIssuer(cfg.Issuer), jwt.WithLeeway(clockSkew), jwt.WithIssuedAt())
}

// ParseAccessTokenAllowExpired checks only the signature so refresh can read the jti
// of a token that has already expired. The issuer is compared by hand since claim
// validation is off.
func ParseAccessTokenAllowExpired(cfg config.JWTConfig, tokenString string) (*AccessTokenClaims, error) {
	claims, err := parse(cfg, tokenString, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, err
	}
	if claims.Issuer != cfg.Issuer {
		return nil, jwt.ErrTokenInvalidIssuer
	}
	return claims, nil
}

func parse(cfg config.JWTConfig, tokenString string, opts ...jwt.ParserOption) (*AccessTokenClaims, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	claims := &AccessTokenClaims{}
	parser := jwt.NewParser(append(opts, jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}))...)
	if _, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return []byte(cfg.Secret), nil
	}); err != nil {
		return nil, err
	}

	if claims.Subject != claims.UserID.String() {
		return nil, ErrSubjectMismatch
	}
	if !claims.Role.IsValid() {
		return nil, ErrInvalidRole
	}
	return claims, nil
}

// BearerToken strips an optional "Bearer " prefix from an Authorization header value.
func BearerToken(header string) string {
	token := strings.TrimSpace(header)
	if scheme, rest, ok := strings.Cut(token, " "); ok && strings.EqualFold(scheme, "bearer") {
		return strings.TrimSpace(rest)
	}
	if strings.EqualFold(token, "bearer") {
		return ""
	}
	return token
}
