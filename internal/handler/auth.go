package handler

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gti/pagekit/internal/middleware"
	"github.com/gti/pagekit/internal/models"
	"github.com/gti/pagekit/internal/service"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Login form messages, shown in the error banner.
const (
	MsgEmailRequired      = "Email is required"
	MsgEmailInvalid       = "Invalid email format"
	MsgPasswordRequired   = "Password is required"
	MsgPasswordTooShort   = "Password too short"
	MsgInvalidCredentials = "Invalid credentials"
	MsgLoginFailed        = "Something went wrong, please try again"
)

type AuthHandler struct {
	authService *service.AuthService
	templates   *template.Template
	validate    *validator.Validate
	log         *zap.Logger
}

func NewAuthHandler(
	authService *service.AuthService,
	templates *template.Template,
	log *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		templates:   templates,
		validate:    validator.New(),
		log:         log.Named("auth_handler"),
	}
}

// loginView is the data behind the login template.
type loginView struct {
	Title           string
	Email           string
	RememberMe      bool
	Error           string
	EmailInvalid    bool
	PasswordInvalid bool
}

// LoginPage renders the login form
func (h *AuthHandler) LoginPage(c echo.Context) error {
	// If already authenticated, go straight to the dashboard
	if middleware.IsAuthenticated(c) {
		return c.Redirect(http.StatusFound, "/dashboard")
	}

	return render(c, h.templates, http.StatusOK, "login", loginView{Title: "Login"})
}

// Login validates the form, checks credentials and sets the session cookies
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return render(c, h.templates, http.StatusBadRequest, "login", loginView{Title: "Login", Error: MsgLoginFailed})
	}
	view := loginView{Title: "Login", Email: req.Email, RememberMe: req.RememberMe}

	if err := h.validate.Struct(req); err != nil {
		view.Error, view.EmailInvalid, view.PasswordInvalid = loginValidationMessage(err)
		return render(c, h.templates, http.StatusBadRequest, "login", view)
	}

	res, err := h.authService.Login(c.Request().Context(), req.Email, req.Password, req.RememberMe)
	if errors.Is(err, service.ErrInvalidCredentials) {
		view.Error = MsgInvalidCredentials
		return render(c, h.templates, http.StatusUnauthorized, "login", view)
	}
	if err != nil {
		h.log.Error("login failed", zap.String("email", req.Email), zap.Error(err))
		view.Error = MsgLoginFailed
		return render(c, h.templates, http.StatusInternalServerError, "login", view)
	}

	middleware.SetSessionCookie(c, res.SessionToken)
	if res.RememberToken != "" {
		middleware.SetRememberCookie(c, res.RememberToken, res.RememberExpires)
	}

	return c.Redirect(http.StatusSeeOther, "/dashboard")
}

// loginValidationMessage picks the banner text for the first failing field
// and flags which inputs are invalid.
func loginValidationMessage(err error) (msg string, emailInvalid, passwordInvalid bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return MsgLoginFailed, false, false
	}

	for _, fe := range verrs {
		switch fe.Field() {
		case "Email":
			emailInvalid = true
		case "Password":
			passwordInvalid = true
		}
	}

	first := verrs[0]
	switch first.Field() + "." + first.Tag() {
	case "Email.required":
		msg = MsgEmailRequired
	case "Email.email":
		msg = MsgEmailInvalid
	case "Password.required":
		msg = MsgPasswordRequired
	case "Password.min":
		msg = MsgPasswordTooShort
	default:
		msg = MsgLoginFailed
	}
	return msg, emailInvalid, passwordInvalid
}

// Logout clears the session and remember cookies
func (h *AuthHandler) Logout(c echo.Context) error {
	var tokens []string
	for _, name := range []string{middleware.SessionCookieName, middleware.RememberCookieName} {
		if cookie, err := c.Cookie(name); err == nil {
			tokens = append(tokens, cookie.Value)
		}
		middleware.ClearCookie(c, name)
	}

	if err := h.authService.Logout(c.Request().Context(), tokens...); err != nil {
		h.log.Warn("failed to delete sessions on logout", zap.Error(err))
	}

	return c.Redirect(http.StatusSeeOther, "/login")
}

// ForgotPasswordPage renders the password reset placeholder
func (h *AuthHandler) ForgotPasswordPage(c echo.Context) error {
	return render(c, h.templates, http.StatusOK, "forgot_password", map[string]string{"Title": "Forgot password"})
}

// SignupPage renders the signup placeholder
func (h *AuthHandler) SignupPage(c echo.Context) error {
	return render(c, h.templates, http.StatusOK, "signup", map[string]string{"Title": "Sign up"})
}

func render(c echo.Context, templates *template.Template, status int, name string, data any) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(status)
	return templates.ExecuteTemplate(c.Response().Writer, name, data)
}
