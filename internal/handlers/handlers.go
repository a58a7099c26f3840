package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/melalfey/schoolos-admin-portal/internal/apiclient"
	"github.com/melalfey/schoolos-admin-portal/internal/config"
	"github.com/melalfey/schoolos-admin-portal/internal/gate"
	"github.com/melalfey/schoolos-admin-portal/internal/middleware"
	"github.com/melalfey/schoolos-admin-portal/internal/models"
	"github.com/melalfey/schoolos-admin-portal/internal/routes"
	"github.com/melalfey/schoolos-admin-portal/internal/session"
	"github.com/melalfey/schoolos-admin-portal/internal/storage"
	"github.com/melalfey/schoolos-admin-portal/internal/views"
)

type HandlerSet struct {
	log    zerolog.Logger
	cfg    *config.AppConfig
	kv     storage.KV
	client *http.Client
}

func NewHandlerSet(log zerolog.Logger, kv storage.KV, client *http.Client, cfg *config.AppConfig) HandlerSet {
	if client == nil {
		client = &http.Client{Timeout: cfg.API.Timeout}
	}
	return HandlerSet{
		log:    log,
		cfg:    cfg,
		kv:     kv,
		client: client,
	}
}

func (h HandlerSet) Register(engine *gin.Engine) {
	engine.GET("/healthz", h.Health)

	portal := engine.Group("/")
	portal.Use(
		middleware.Flashes(),
		middleware.PortalSession(h.kv, h.cfg.Session, h.log),
	)

	portal.GET(routes.Root, func(c *gin.Context) {
		c.Redirect(http.StatusFound, routes.Login)
	})
	portal.GET(routes.Login, h.LoginPage)
	portal.POST(routes.Login, h.Login)
	portal.POST(routes.Logout, h.Logout)

	superAdmin := portal.Group("/super-admin")
	superAdmin.Use(middleware.Gate(gate.RequireSuperAdmin()))
	{
		superAdmin.GET("/dashboard", h.SuperAdminDashboard)
		superAdmin.POST("/schools", h.CreateSchool)
		superAdmin.GET("/schools/:id", h.SchoolDetails)
		superAdmin.POST("/schools/:id/admins", h.AssignSchoolAdmin)
	}

	schoolAdmin := portal.Group("/school-admin")
	schoolAdmin.Use(middleware.Gate(gate.RequireRoles(models.RoleSchoolAdmin)))
	{
		schoolAdmin.GET("/dashboard", h.SchoolAdminDashboard)
		schoolAdmin.GET("/students", h.Students)
		schoolAdmin.GET("/staff", h.Staff)
	}

	engine.NoRoute(middleware.Flashes(), h.NotFound)
}

// gateway builds the API gateway for the browser session of c.
func (h HandlerSet) gateway(c *gin.Context, store *session.Store) *apiclient.Gateway {
	return apiclient.New(h.cfg.API.BaseURL, store,
		apiclient.WithHTTPClient(h.client),
		apiclient.WithNotifier(middleware.Notifier(c)),
		apiclient.WithLogger(h.log.With().Str("request_id", c.Writer.Header().Get(middleware.RequestIDHeader)).Logger()),
	)
}

// render writes a page with the signed-in user and pending notifications.
// It does nothing once a navigation has already answered the request.
func (h HandlerSet) render(c *gin.Context, status int, name string, data gin.H) {
	if c.Writer.Written() {
		return
	}
	if data == nil {
		data = gin.H{}
	}
	if _, ok := data["User"]; !ok {
		if user, ok := middleware.CurrentUser(c); ok {
			data["User"] = user
		}
	}
	data["Flashes"] = middleware.TakeFlashes(c)
	c.HTML(status, name, data)
}

func (h HandlerSet) NotFound(c *gin.Context) {
	h.render(c, http.StatusNotFound, views.NotFound, gin.H{"Title": "Not found"})
}
