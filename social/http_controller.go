package social

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	auth "github.com/pavlion/go-directory-auth"
)

// RouteRegistrar captures the router methods used by the controller.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// HTTPController handles social auth HTTP routes.
type HTTPController struct {
	linker *Linker
	config HTTPConfig
}

// HTTPConfig configures the HTTP controller.
type HTTPConfig struct {
	// CookieName for the refresh token (default: auth.RefreshCookieName)
	CookieName string

	// RefreshTTL bounds the refresh cookie lifetime (default: 7 days)
	RefreshTTL time.Duration

	// ErrorHandler handles errors (optional)
	ErrorHandler func(ctx router.Context, err error) error
}

// NewHTTPController creates a new social auth HTTP controller.
func NewHTTPController(linker *Linker, cfg HTTPConfig) *HTTPController {
	if cfg.CookieName == "" {
		cfg.CookieName = auth.RefreshCookieName
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = auth.DefaultRefreshTokenTTL
	}

	return &HTTPController{
		linker: linker,
		config: cfg,
	}
}

// RegisterRoutes registers social auth routes.
func (c *HTTPController) RegisterRoutes(group RouteRegistrar) {
	group.Get("/providers", c.ListProviders)
	group.Post("/:provider/register", c.Register)
	group.Post("/:provider/link", c.LinkAccount)
	group.Post("/:provider", c.Authenticate)
}

// ListProviders returns available social providers.
func (c *HTTPController) ListProviders(ctx router.Context) error {
	return ctx.JSON(router.StatusOK, map[string]any{
		"providers": c.linker.ListProviders(),
	})
}

// Authenticate logs in with a raw provider credential. The token arrives as
// the raw request body, or in the Authorization header for providers whose
// clients send it that way.
func (c *HTTPController) Authenticate(ctx router.Context) error {
	rawToken := providerTokenFromRequest(ctx)
	if rawToken == "" {
		return c.handleError(ctx, ErrInvalidProviderToken)
	}

	result, err := c.linker.Authenticate(ctx.Context(), ctx.Param("provider"), rawToken)
	if err != nil {
		return c.handleError(ctx, err)
	}

	if result.Unlinked {
		return ctx.JSON(router.StatusOK, map[string]any{
			"registered": false,
		})
	}

	c.setRefreshCookie(ctx, result.Pair.RefreshToken)

	return ctx.JSON(router.StatusOK, map[string]any{
		"registered":   true,
		"access_token": result.Pair.AccessToken,
	})
}

// RegisterRequest is the social registration payload.
type RegisterRequest struct {
	Username string `form:"username" json:"username"`
	Token    string `form:"token" json:"token"`
}

// Validate will run validation rules
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(3, 100)),
	)
}

// Register creates a local account bound to the provider identity.
func (c *HTTPController) Register(ctx router.Context) error {
	payload := new(RegisterRequest)
	if err := ctx.Bind(payload); err != nil {
		return c.handleError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse registration payload").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return c.handleError(ctx, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration payload").
			WithCode(goerrors.CodeBadRequest))
	}

	rawToken := payload.Token
	if rawToken == "" {
		rawToken = bearerToken(ctx)
	}
	if rawToken == "" {
		return c.handleError(ctx, ErrInvalidProviderToken)
	}

	result, err := c.linker.Register(ctx.Context(), ctx.Param("provider"), payload.Username, rawToken)
	if err != nil {
		return c.handleError(ctx, err)
	}

	c.setRefreshCookie(ctx, result.Pair.RefreshToken)

	return ctx.JSON(router.StatusOK, map[string]any{
		"access_token": result.Pair.AccessToken,
	})
}

// LinkRequest is the password-confirmed link payload.
type LinkRequest struct {
	Password string `form:"password" json:"password"`
	Token    string `form:"token" json:"token"`
}

// Validate will run validation rules
func (r LinkRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Password, validation.Required),
	)
}

// LinkAccount binds the provider identity to an existing account, gated on
// the caller's local password.
func (c *HTTPController) LinkAccount(ctx router.Context) error {
	payload := new(LinkRequest)
	if err := ctx.Bind(payload); err != nil {
		return c.handleError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse link payload").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return c.handleError(ctx, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid link payload").
			WithCode(goerrors.CodeBadRequest))
	}

	rawToken := payload.Token
	if rawToken == "" {
		rawToken = bearerToken(ctx)
	}
	if rawToken == "" {
		return c.handleError(ctx, ErrInvalidProviderToken)
	}

	result, err := c.linker.Link(ctx.Context(), ctx.Param("provider"), payload.Password, rawToken)
	if err != nil {
		return c.handleError(ctx, err)
	}

	c.setRefreshCookie(ctx, result.Pair.RefreshToken)

	return ctx.JSON(router.StatusOK, map[string]any{
		"access_token": result.Pair.AccessToken,
	})
}

func (c *HTTPController) setRefreshCookie(ctx router.Context, token string) {
	ctx.Cookie(&router.Cookie{
		Name:     c.config.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(c.config.RefreshTTL),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "None",
	})
}

func (c *HTTPController) handleError(ctx router.Context, err error) error {
	if c.config.ErrorHandler != nil {
		return c.config.ErrorHandler(ctx, err)
	}

	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	return ctx.JSON(richErr.Code, map[string]string{
		"error":     richErr.Message,
		"text_code": richErr.TextCode,
	})
}

// providerTokenFromRequest reads the raw credential from the request body,
// falling back to the Authorization header.
func providerTokenFromRequest(ctx router.Context) string {
	if body := strings.TrimSpace(string(ctx.Body())); body != "" && !strings.HasPrefix(body, "{") {
		return body
	}
	return bearerToken(ctx)
}

func bearerToken(ctx router.Context) string {
	a := ctx.Header(router.HeaderAuthorization)
	const scheme = "Bearer"
	if len(a) > len(scheme)+1 && strings.EqualFold(a[:len(scheme)], scheme) {
		return strings.TrimSpace(a[len(scheme):])
	}
	return ""
}
