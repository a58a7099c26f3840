// Package views holds the portal's HTML templates.
package views

import (
	"embed"
	"html/template"
	"strings"
	"time"
)

const (
	Login                = "login.html"
	Loading              = "loading.html"
	AccessDenied         = "access_denied.html"
	Unauthorized         = "unauthorized.html"
	NotFound             = "not_found.html"
	SuperAdminDashboard  = "super_admin_dashboard.html"
	SchoolDetails        = "school_details.html"
	SchoolAdminDashboard = "school_admin_dashboard.html"
	Users                = "users.html"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02")
	},
	"title": func(s string) string {
		s = strings.ReplaceAll(s, "_", " ")
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	},
}

// Templates parses every embedded template. It panics on a malformed
// template since they are compiled into the binary.
func Templates() *template.Template {
	return template.Must(template.New("views").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}
