package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/melalfey/schoolos-admin-portal/internal/apiclient"
	"github.com/melalfey/schoolos-admin-portal/internal/middleware"
	"github.com/melalfey/schoolos-admin-portal/internal/models"
	"github.com/melalfey/schoolos-admin-portal/internal/routes"
	"github.com/melalfey/schoolos-admin-portal/internal/views"
)

type createSchoolRequest struct {
	Name    string `form:"name" binding:"required"`
	Domain  string `form:"domain" binding:"required"`
	Address string `form:"address"`
}

type assignAdminRequest struct {
	Email string `form:"email" binding:"required,email"`
}

func (h HandlerSet) SuperAdminDashboard(c *gin.Context) {
	// Failures reach the page as flashes; the table renders empty.
	schools, _ := apiclient.NewSchoolService(h.gateway(c, middleware.Store(c))).List(c.Request.Context())
	h.render(c, http.StatusOK, views.SuperAdminDashboard, gin.H{
		"Title":   "Schools",
		"Schools": schools,
	})
}

func (h HandlerSet) SchoolDetails(c *gin.Context) {
	id := c.Param("id")
	svc := apiclient.NewSchoolService(h.gateway(c, middleware.Store(c)))

	school, err := svc.Get(c.Request.Context(), id)
	if err != nil {
		if apiErr, ok := apiclient.AsError(err); ok && apiErr.Status == http.StatusNotFound {
			h.render(c, http.StatusNotFound, views.NotFound, gin.H{"Title": "Not found"})
			return
		}
		h.render(c, http.StatusOK, views.SchoolDetails, gin.H{
			"Title":    "School",
			"SchoolID": id,
		})
		return
	}

	admins, _ := svc.Admins(c.Request.Context(), id)
	h.render(c, http.StatusOK, views.SchoolDetails, gin.H{
		"Title":    school.Name,
		"School":   school,
		"SchoolID": id,
		"Admins":   admins,
	})
}

func (h HandlerSet) CreateSchool(c *gin.Context) {
	notify := middleware.Notifier(c)

	var req createSchoolRequest
	if err := c.ShouldBind(&req); err != nil {
		notify.Notify(apiclient.LevelError, "School name and domain are required")
		middleware.Navigator(c).Navigate(routes.SuperAdminDashboard)
		return
	}

	active := true
	school, err := apiclient.NewSchoolService(h.gateway(c, middleware.Store(c))).Create(c.Request.Context(), models.SchoolInput{
		Name:     strings.TrimSpace(req.Name),
		Domain:   strings.TrimSpace(req.Domain),
		Address:  strings.TrimSpace(req.Address),
		IsActive: &active,
	})
	if err == nil {
		notify.Notify(apiclient.LevelSuccess, "School "+school.Name+" created")
	}
	middleware.Navigator(c).Navigate(routes.SuperAdminDashboard)
}

func (h HandlerSet) AssignSchoolAdmin(c *gin.Context) {
	id := c.Param("id")
	back := strings.Replace(routes.SuperAdminSchool, ":id", id, 1)
	notify := middleware.Notifier(c)

	var req assignAdminRequest
	if err := c.ShouldBind(&req); err != nil {
		notify.Notify(apiclient.LevelError, "A valid email address is required")
		middleware.Navigator(c).Navigate(back)
		return
	}

	admin, err := apiclient.NewSchoolService(h.gateway(c, middleware.Store(c))).AddAdmin(c.Request.Context(), id, strings.TrimSpace(req.Email))
	if err == nil {
		notify.Notify(apiclient.LevelSuccess, admin.DisplayName()+" is now an administrator")
	}
	middleware.Navigator(c).Navigate(back)
}
