package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// TokenService issues and verifies the signed bearer tokens. Verification is
// pure computation; the only shared state is the read-only signing key.
type TokenService interface {
	Issue(subject string, roles []string, kind TokenKind) (string, error)
	Verify(tokenString string) (*JWTClaims, error)
}

// TokenServiceImpl implements TokenService over HS256.
type TokenServiceImpl struct {
	key             *SigningKey
	issuer          string
	audience        jwt.ClaimStrings
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
	logger          Logger
}

// NewTokenService creates a TokenService bound to the process signing key.
func NewTokenService(key *SigningKey, cfg Config, logger Logger) *TokenServiceImpl {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenServiceImpl{
		key:             key,
		issuer:          cfg.GetIssuer(),
		audience:        jwt.ClaimStrings(cfg.GetAudience()),
		accessTokenTTL:  cfg.GetAccessTokenTTL(),
		refreshTokenTTL: cfg.GetRefreshTokenTTL(),
		logger:          logger,
	}
}

// Issue signs a claims set for the subject. kind selects the expiry window.
func (ts *TokenServiceImpl) Issue(subject string, roles []string, kind TokenKind) (string, error) {
	ttl := ts.accessTokenTTL
	if kind == RefreshToken {
		ttl = ts.refreshTokenTTL
	}

	now := time.Now()
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   subject,
			Audience:  ts.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		RoleNames: append([]string(nil), roles...),
		TokenKind: kind,
	}

	return ts.SignClaims(claims)
}

// SignClaims signs an arbitrary claims set with the process key.
func (ts *TokenServiceImpl) SignClaims(claims *JWTClaims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(ts.key.Bytes())
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signed, nil
}

// Verify parses and validates a token. The three failure modes stay
// distinct: expired tokens route into the refresh flow, malformed and
// bad-signature tokens are rejected outright.
func (ts *TokenServiceImpl) Verify(tokenString string) (*JWTClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService verify encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.key.Bytes(), nil
	}, parserOptions...)

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
				WithTextCode(ErrTokenMalformed.TextCode)
		}
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	ts.logger.Error("TokenService verify could not decode claims")
	return nil, ErrTokenMalformed
}

// DecodeUnverified parses a token without checking the signature or expiry.
// Read accessors only; never trust the result before Verify succeeds.
func DecodeUnverified(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}
	return claims, nil
}

// DecodeSubject extracts the subject without verifying.
func DecodeSubject(tokenString string) (string, error) {
	claims, err := DecodeUnverified(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject(), nil
}

// DecodeRoles extracts the role names without verifying.
func DecodeRoles(tokenString string) ([]string, error) {
	claims, err := DecodeUnverified(tokenString)
	if err != nil {
		return nil, err
	}
	return claims.Roles(), nil
}

// DecodeExpiry extracts the expiry without verifying.
func DecodeExpiry(tokenString string) (time.Time, error) {
	claims, err := DecodeUnverified(tokenString)
	if err != nil {
		return time.Time{}, err
	}
	return claims.Expires(), nil
}
