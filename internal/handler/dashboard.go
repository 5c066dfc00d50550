package handler

import (
	"html/template"
	"net/http"

	"github.com/gti/pagekit/internal/middleware"
	"github.com/labstack/echo/v4"
)

type DashboardHandler struct {
	templates *template.Template
}

func NewDashboardHandler(templates *template.Template) *DashboardHandler {
	return &DashboardHandler{templates: templates}
}

// Dashboard renders the signed-in landing page
func (h *DashboardHandler) Dashboard(c echo.Context) error {
	data := map[string]string{
		"Title": "Dashboard",
		"Email": middleware.GetUserEmail(c),
	}
	return render(c, h.templates, http.StatusOK, "dashboard", data)
}

// Index sends visitors to the dashboard or the login form
func (h *DashboardHandler) Index(c echo.Context) error {
	if middleware.IsAuthenticated(c) {
		return c.Redirect(http.StatusFound, "/dashboard")
	}
	return c.Redirect(http.StatusFound, "/login")
}
