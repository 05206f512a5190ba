package auth

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// RefreshCookieName is the only place the refresh token travels client side.
const RefreshCookieName = "refreshToken"

// MsgRefreshInvalid is the single message rendered for every refresh
// failure. Expired, malformed, and absent tokens are indistinguishable to
// the caller.
const MsgRefreshInvalid = "Refresh token invalid or missing"

// RouteRegistrar captures the router methods used by the controller.
type RouteRegistrar interface {
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// RouteAuthenticator exposes the credential flows over HTTP. The access
// token travels in the JSON body, the refresh token in an HTTP-only cookie
// that browser scripts never see.
type RouteAuthenticator struct {
	auth         Authenticator
	cfg          Config
	Logger       Logger
	ErrorHandler func(c router.Context, err error) error
}

func NewHTTPAuthenticator(auther Authenticator, cfg Config) (*RouteAuthenticator, error) {
	a := &RouteAuthenticator{
		cfg:    cfg,
		auth:   auther,
		Logger: defLogger{},
	}

	a.ErrorHandler = a.defaultErrHandler

	return a, nil
}

func (a *RouteAuthenticator) RegisterRoutes(group RouteRegistrar) {
	group.Post("/login", a.LoginPost)
	group.Post("/refresh", a.RefreshPost)
	group.Post("/logout", a.LogoutPost)
}

// LoginRequest is the local credential payload.
type LoginRequest struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *RouteAuthenticator) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryBadInput, "failed to parse login payload").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryValidation, "invalid login payload").
			WithCode(errors.CodeBadRequest))
	}

	pair, err := a.auth.Login(ctx.Context(), payload.Username, payload.Password)
	if err != nil {
		a.Logger.Error("Login error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	a.setRefreshCookie(ctx, pair.RefreshToken)

	return ctx.JSON(router.StatusOK, map[string]string{
		"access_token": pair.AccessToken,
	})
}

// RefreshPost mints a new access token from the refresh cookie. The cookie
// is the only accepted transport: a refresh token in the Authorization
// header is ignored, long-lived credentials never ride where scripts can
// put them.
func (a *RouteAuthenticator) RefreshPost(ctx router.Context) error {
	raw := ctx.Cookies(RefreshCookieName)
	if raw == "" {
		return ctx.Status(router.StatusUnauthorized).SendString(MsgRefreshInvalid)
	}

	access, err := a.auth.Refresh(ctx.Context(), raw)
	if err != nil {
		a.Logger.Debug("Refresh rejected", "error", err)
		return ctx.Status(router.StatusUnauthorized).SendString(MsgRefreshInvalid)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"access_token": access,
	})
}

func (a *RouteAuthenticator) LogoutPost(ctx router.Context) error {
	a.clearRefreshCookie(ctx)
	return ctx.Status(router.StatusOK).SendString("Logged out")
}

func (a *RouteAuthenticator) setRefreshCookie(c router.Context, val string) {
	c.Cookie(&router.Cookie{
		Name:     RefreshCookieName,
		Value:    val,
		Path:     "/",
		Expires:  time.Now().Add(a.cfg.GetRefreshTokenTTL()),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "None",
	})
}

func (a *RouteAuthenticator) clearRefreshCookie(c router.Context) {
	c.Cookie(&router.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "None",
	})
}

func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	a.Logger.Info(
		"Auth error handler",
		"error", richErr.Message,
		"category", richErr.Category,
		"text_code", richErr.TextCode,
	)

	return c.JSON(richErr.Code, map[string]string{
		"error": richErr.Message,
	})
}
