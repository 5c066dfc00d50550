package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gti/pagekit/internal/models"
	"github.com/gti/pagekit/internal/service"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type APIHandler struct {
	authService *service.AuthService
	db          Pinger
	validate    *validator.Validate
	log         *zap.Logger
}

func NewAPIHandler(authService *service.AuthService, db Pinger, log *zap.Logger) *APIHandler {
	return &APIHandler{
		authService: authService,
		db:          db,
		validate:    validator.New(),
		log:         log.Named("api_handler"),
	}
}

// CreateUser registers a user that can then log in through the form
// @Summary Create a user
// @Description Create a login for browser tests. The password is stored as a bcrypt hash.
// @Tags Users
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param user body models.CreateUserRequest true "User to create"
// @Success 201 {object} models.UserResponse "Created user"
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]string "Email already registered"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /api/users [post]
func (h *APIHandler) CreateUser(c echo.Context) error {
	var req models.CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
	}

	user, err := h.authService.Register(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			return c.JSON(http.StatusConflict, map[string]string{
				"error": "email already registered",
			})
		}
		h.log.Error("failed to create user", zap.String("email", req.Email), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to create user",
		})
	}

	return c.JSON(http.StatusCreated, models.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	})
}

// Health reports service and database status
// @Summary Health check
// @Description Returns ok when the server is up and the database answers
// @Tags Health
// @Produce json
// @Success 200 {object} models.HealthResponse "Healthy"
// @Failure 503 {object} models.HealthResponse "Database unreachable"
// @Router /api/health [get]
func (h *APIHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.log.Warn("health check: database unreachable", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, models.HealthResponse{Status: "degraded", Database: "unreachable"})
	}

	return c.JSON(http.StatusOK, models.HealthResponse{Status: "ok", Database: "ok"})
}
