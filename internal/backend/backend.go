// Package backend is a development stand-in for the SchoolOS REST API. It
// speaks the same envelope and bearer-token contract as the real service so
// the portal and schoolctl can run without it.
//
// It exists for cmd/mock-api and for tests. The portal never imports it and
// none of its rules are authoritative, the real backend owns them.
package backend

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/melalfey/schoolos-admin-portal/internal/config"
	"github.com/melalfey/schoolos-admin-portal/internal/models"
	"github.com/melalfey/schoolos-admin-portal/internal/repository"
	"github.com/melalfey/schoolos-admin-portal/internal/security"
	"github.com/melalfey/schoolos-admin-portal/internal/service"
)

type API struct {
	auth      *service.AuthService
	directory *service.DirectoryService
	log       zerolog.Logger
}

func New(auth *service.AuthService, directory *service.DirectoryService, log zerolog.Logger) *API {
	return &API{auth: auth, directory: directory, log: log}
}

// NewFromConfig wires in-memory repositories and seeds the configured super
// admin account.
func NewFromConfig(ctx context.Context, cfg config.MockAPIConfig, params security.Argon2Params, log zerolog.Logger) (*API, error) {
	users := repository.NewUserRepository()
	auth := service.NewAuthService(users, security.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL), params, log)
	directory := service.NewDirectoryService(repository.NewSchoolRepository(), users, auth)

	if _, err := auth.Register(ctx, models.UserInput{
		Email:     cfg.AdminEmail,
		Password:  cfg.AdminPassword,
		FirstName: "Platform",
		LastName:  "Admin",
		Role:      models.RoleSuperAdmin,
	}); err != nil {
		return nil, err
	}
	return New(auth, directory, log), nil
}

func (a *API) Auth() *service.AuthService { return a.auth }

func (a *API) Directory() *service.DirectoryService { return a.directory }

func (a *API) Register(engine *gin.Engine) {
	api := engine.Group("/api")
	api.POST("/auth/login", a.login)

	authed := api.Group("/")
	authed.Use(a.requireToken())
	{
		authed.GET("/auth/me", a.me)

		schools := authed.Group("/schools")
		schools.Use(requireSuperAdmin())
		schools.GET("", a.listSchools)
		schools.POST("", a.createSchool)
		schools.GET("/:id", a.getSchool)
		schools.PUT("/:id", a.updateSchool)
		schools.DELETE("/:id", a.deleteSchool)
		schools.GET("/:id/admins", a.schoolAdmins)
		schools.POST("/:id/admins", a.assignAdmin)
		schools.DELETE("/:id/admins/:userId", a.removeAdmin)

		users := authed.Group("/users")
		users.Use(requireRoles(models.RoleSchoolAdmin))
		users.GET("", a.listUsers)
		users.POST("", a.createUser)
		users.PUT("/:id", a.updateUser)
		users.DELETE("/:id", a.deleteUser)
	}

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

func ok(c *gin.Context, status int, data any) {
	if data == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(status, gin.H{"success": true, "data": data})
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

// failErr maps service errors onto HTTP statuses.
func (a *API) failErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, service.ErrUserSuspended):
		fail(c, http.StatusForbidden, "Account is suspended")
	case errors.Is(err, service.ErrForbidden):
		fail(c, http.StatusForbidden, "You do not have access to this resource")
	case errors.Is(err, service.ErrInvalidInput):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrEmailTaken):
		fail(c, http.StatusConflict, "Email is already registered")
	case errors.Is(err, repository.ErrUserNotFound):
		fail(c, http.StatusNotFound, "User not found")
	case errors.Is(err, repository.ErrSchoolNotFound):
		fail(c, http.StatusNotFound, "School not found")
	default:
		a.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		fail(c, http.StatusInternalServerError, "Internal server error")
	}
}
