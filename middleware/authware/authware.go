package authware

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-router"
)

var (
	// defaultTokenLookup checks the bearer header first, then the browser
	// refresh cookie, matching the sources the login flow actually uses.
	defaultTokenLookup    = "header:" + router.HeaderAuthorization + ",cookie:refreshToken"
	ErrMissingOrMalformed = errors.New("missing or malformed token")
)

// TokenValidator interface for validating tokens without import cycles.
// This mirrors the TokenService.Verify method from the auth package.
type TokenValidator interface {
	Verify(tokenString string) (AuthClaims, error)
}

// ValidatorFunc adapts a plain function into a TokenValidator.
type ValidatorFunc func(tokenString string) (AuthClaims, error)

func (f ValidatorFunc) Verify(tokenString string) (AuthClaims, error) {
	return f(tokenString)
}

// AuthClaims interface for structured claims without import cycles.
// This mirrors the verified claims surface from the auth package.
type AuthClaims interface {
	Subject() string
	Roles() []string
	HasRole(role string) bool
}

type Config struct {
	// Filter skips the middleware entirely when it returns true.
	Filter         func(router.Context) bool
	SuccessHandler router.HandlerFunc

	// ErrorHandler decides what a failed extraction or validation does.
	// The default continues the chain without a principal, which makes
	// the filter idempotent and safe on public routes. Install a strict
	// handler to turn failures into 401s instead.
	ErrorHandler router.ErrorHandler

	ContextKey  string
	TokenLookup string
	AuthScheme  string

	// TokenValidator is required for token validation
	TokenValidator TokenValidator

	// RequiredRole, when set, demands the role on top of a valid token.
	RequiredRole string
	// RoleChecker is an optional function to validate roles against custom logic
	RoleChecker func(AuthClaims, string) bool

	// ContextEnricher is an optional function to propagate claims to the standard
	// Go context. If provided, it will be called after successful token validation.
	ContextEnricher func(c context.Context, claims AuthClaims) context.Context
}

// New builds the per-request authentication filter. A request already
// carrying claims under ContextKey passes through untouched, so stacking
// the filter twice costs nothing.
func New(config ...Config) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		cfg := GetDefaultConfig(config...)
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			if ctx.Locals(cfg.ContextKey) != nil {
				return ctx.Next()
			}

			raw, err := ExtractRawTokenFromContext(ctx, cfg.getExtractors())
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			claims, err := cfg.TokenValidator.Verify(raw)
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			if err := performAuthorizationChecks(claims, cfg); err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			ctx.Locals(cfg.ContextKey, claims)

			if cfg.ContextEnricher != nil {
				stdCtx := ctx.Context()
				stdCtxWithClaims := cfg.ContextEnricher(stdCtx, claims)
				ctx.SetContext(stdCtxWithClaims)
			}

			return cfg.SuccessHandler(ctx)
		}
	}
}

func performAuthorizationChecks(claims AuthClaims, cfg Config) error {
	if cfg.RequiredRole == "" && cfg.RoleChecker == nil {
		return nil
	}

	if cfg.RequiredRole != "" {
		if !claims.HasRole(cfg.RequiredRole) {
			return fmt.Errorf("access denied: required role '%s' not found", cfg.RequiredRole)
		}
	}

	if cfg.RoleChecker != nil && cfg.RequiredRole != "" {
		if !cfg.RoleChecker(claims, cfg.RequiredRole) {
			return fmt.Errorf("access denied: custom role check failed for role '%s'", cfg.RequiredRole)
		}
	}

	return nil
}

func ExtractRawTokenFromContext(ctx router.Context, extractors []TokenExtractor) (string, error) {
	var raw string
	var err error

	for _, extractor := range extractors {
		raw, err = extractor(ctx)
		if raw != "" && err == nil {
			break
		}
	}

	return raw, err
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(ctx router.Context) error {
			return ctx.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c router.Context, err error) error {
			return c.Next()
		}
	}

	if cfg.TokenValidator == nil {
		panic("AUTH: middleware configuration: TokenValidator is required.")
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "user"
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	return cfg
}

// StrictErrorHandler turns extraction and validation failures into a 401
// with a constant body. Use it on routes that must not run anonymous.
func StrictErrorHandler(c router.Context, err error) error {
	if err.Error() == ErrMissingOrMalformed.Error() {
		return c.Status(router.StatusBadRequest).SendString(ErrMissingOrMalformed.Error())
	}
	return c.Status(router.StatusUnauthorized).SendString("Invalid or expired token")
}

func (cfg *Config) getExtractors() []TokenExtractor {
	return GetExtractors(cfg.TokenLookup, cfg.AuthScheme)
}

// GetExtractors parses a lookup string of the form
// "header:Authorization,cookie:refreshToken,query:auth_token,param:token"
// into ordered extractors.
func GetExtractors(tokenLookup string, authSchemes ...string) []TokenExtractor {
	extractors := make([]TokenExtractor, 0)

	authScheme := "Bearer"
	if len(authSchemes) > 0 {
		authScheme = authSchemes[0]
	}

	rootParts := strings.Split(tokenLookup, ",")
	for _, rootPart := range rootParts {
		parts := strings.Split(strings.TrimSpace(rootPart), ":")

		for i, el := range parts {
			parts[i] = strings.TrimSpace(el)
		}

		if len(parts) < 2 {
			continue
		}

		switch parts[0] {
		case "header":
			extractors = append(extractors, tokenFromHeader(parts[1], authScheme))
		case "query":
			extractors = append(extractors, tokenFromQuery(parts[1]))
		case "param":
			extractors = append(extractors, tokenFromParam(parts[1]))
		case "cookie":
			extractors = append(extractors, tokenFromCookie(parts[1]))
		}
	}

	return extractors
}

type TokenExtractor func(c router.Context) (string, error)

// tokenFromHeader returns a function that extracts a token from the request header.
func tokenFromHeader(header string, authScheme string) func(c router.Context) (string, error) {
	return func(c router.Context) (string, error) {
		a := c.GetString(header, "")
		l := len(authScheme)
		if l == 0 {
			return "", ErrMissingOrMalformed
		}
		authScheme = strings.TrimSpace(authScheme)
		if len(a) > l+1 && strings.EqualFold(a[:l], authScheme) {
			return strings.TrimSpace(a[l:]), nil
		}
		return "", ErrMissingOrMalformed
	}
}

// tokenFromQuery returns a function that extracts a token from the query string.
func tokenFromQuery(param string) func(c router.Context) (string, error) {
	return func(c router.Context) (string, error) {
		token := c.Query(param, "")
		if token == "" {
			return "", ErrMissingOrMalformed
		}
		return token, nil
	}
}

// tokenFromParam returns a function that extracts a token from the url param string.
func tokenFromParam(param string) func(c router.Context) (string, error) {
	return func(c router.Context) (string, error) {
		token := c.Param(param)
		if token == "" {
			return "", ErrMissingOrMalformed
		}
		return token, nil
	}
}

// tokenFromCookie returns a function that extracts a token from the named cookie.
func tokenFromCookie(name string) func(c router.Context) (string, error) {
	return func(c router.Context) (string, error) {
		token := c.Cookies(name)
		if token == "" {
			return "", ErrMissingOrMalformed
		}
		return token, nil
	}
}
