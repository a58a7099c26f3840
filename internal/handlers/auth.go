package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/melalfey/schoolos-admin-portal/internal/apiclient"
	"github.com/melalfey/schoolos-admin-portal/internal/middleware"
	"github.com/melalfey/schoolos-admin-portal/internal/views"
)

type loginRequest struct {
	Email    string `form:"email" binding:"required,email"`
	Password string `form:"password" binding:"required"`
}

func (h HandlerSet) LoginPage(c *gin.Context) {
	h.render(c, http.StatusOK, views.Login, gin.H{"Title": "Sign in"})
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		h.render(c, http.StatusBadRequest, views.Login, gin.H{
			"Title": "Sign in",
			"Error": "Email and password are required",
			"Email": req.Email,
		})
		return
	}

	store := middleware.Store(c)
	gw := h.gateway(c, store)

	result, err := apiclient.NewAuthService(gw).Login(c.Request.Context(), apiclient.Credentials{
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
	})
	if err != nil {
		status := http.StatusUnauthorized
		if apiclient.IsNetwork(err) {
			status = http.StatusBadGateway
		}
		h.render(c, status, views.Login, gin.H{
			"Title": "Sign in",
			"Error": apiclient.Message(err),
			"Email": req.Email,
		})
		return
	}

	store, err = middleware.RotateSession(c)
	if err != nil {
		h.log.Error().Err(err).Msg("rotate session id failed")
		h.render(c, http.StatusInternalServerError, views.Login, gin.H{
			"Title": "Sign in",
			"Error": "Could not start your session, please try again",
			"Email": req.Email,
		})
		return
	}

	middleware.Notifier(c).Notify(apiclient.LevelSuccess, "Welcome back to SchoolOS!")
	if err := store.Login(c.Request.Context(), result.Token, result.User); err != nil {
		h.log.Error().Err(err).Msg("establish session failed")
		middleware.TakeFlashes(c)
		h.render(c, http.StatusInternalServerError, views.Login, gin.H{
			"Title": "Sign in",
			"Error": "Could not start your session, please try again",
			"Email": req.Email,
		})
	}
}

func (h HandlerSet) Logout(c *gin.Context) {
	if err := middleware.Store(c).Logout(c.Request.Context()); err != nil {
		h.log.Error().Err(err).Msg("purge session failed")
	}
}
