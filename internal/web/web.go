// Package web holds the sandbox app's HTML templates.
package web

import (
	"embed"
	"html/template"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses every page template.
func Templates() (*template.Template, error) {
	funcMap := template.FuncMap{
		"formatDateTime": func(t time.Time) string {
			return t.Format("Jan 2, 2006 3:04 PM")
		},
	}

	return template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.html")
}
