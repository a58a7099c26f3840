package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/melalfey/schoolos-admin-portal/internal/apiclient"
	"github.com/melalfey/schoolos-admin-portal/internal/middleware"
	"github.com/melalfey/schoolos-admin-portal/internal/models"
	"github.com/melalfey/schoolos-admin-portal/internal/views"
)

func (h HandlerSet) SchoolAdminDashboard(c *gin.Context) {
	users := apiclient.NewUserService(h.gateway(c, middleware.Store(c)))
	ctx := c.Request.Context()

	students, err := users.List(ctx, models.RoleStudent)
	if apiclient.IsUnauthorized(err) {
		return
	}
	staff, _ := users.List(ctx, models.RoleTeacher)

	h.render(c, http.StatusOK, views.SchoolAdminDashboard, gin.H{
		"Title":        "Dashboard",
		"StudentCount": len(students),
		"StaffCount":   len(staff),
	})
}

func (h HandlerSet) Students(c *gin.Context) {
	h.userList(c, "Students", models.RoleStudent)
}

func (h HandlerSet) Staff(c *gin.Context) {
	h.userList(c, "Staff", models.RoleTeacher)
}

func (h HandlerSet) userList(c *gin.Context, title string, role models.Role) {
	list, _ := apiclient.NewUserService(h.gateway(c, middleware.Store(c))).List(c.Request.Context(), role)
	h.render(c, http.StatusOK, views.Users, gin.H{
		"Title": title,
		"Users": list,
	})
}
