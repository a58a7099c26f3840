package backend

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/melalfey/schoolos-admin-portal/internal/models"
)

const actorKey = "api_actor"

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (a *API) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Email and password are required")
		return
	}

	result, err := a.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		a.failErr(c, err)
		return
	}
	ok(c, http.StatusOK, result)
}

func (a *API) me(c *gin.Context) {
	ok(c, http.StatusOK, actor(c))
}

func (a *API) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			fail(c, http.StatusUnauthorized, "Authentication required")
			return
		}

		user, err := a.auth.Authenticate(c.Request.Context(), strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			fail(c, http.StatusUnauthorized, "Session expired, please sign in again")
			return
		}

		c.Set(actorKey, user)
		c.Next()
	}
}

func requireSuperAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !actor(c).IsSuperAdmin {
			fail(c, http.StatusForbidden, "Super admin access required")
			return
		}
		c.Next()
	}
}

// requireRoles admits the listed roles. Super admins always pass.
func requireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := actor(c)
		if !user.IsSuperAdmin && !user.HasRole(roles...) {
			fail(c, http.StatusForbidden, "Insufficient permissions")
			return
		}
		c.Next()
	}
}

func actor(c *gin.Context) models.User {
	v, _ := c.Get(actorKey)
	user, _ := v.(models.User)
	return user
}
