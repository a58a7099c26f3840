package backend

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/melalfey/schoolos-admin-portal/internal/models"
	"github.com/melalfey/schoolos-admin-portal/internal/service"
)

type assignAdminRequest struct {
	Email string `json:"email" binding:"required"`
}

func (a *API) listSchools(c *gin.Context) {
	ok(c, http.StatusOK, a.directory.ListSchools(c.Request.Context()))
}

func (a *API) getSchool(c *gin.Context) {
	school, err := a.directory.GetSchool(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.failErr(c, err)
		return
	}
	ok(c, http.StatusOK, school)
}

func (a *API) createSchool(c *gin.Context) {
	var in models.SchoolInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Invalid school payload")
		return
	}
	school, err := a.directory.CreateSchool(c.Request.Context(), in)
	if err != nil {
		a.failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, school)
}

func (a *API) updateSchool(c *gin.Context) {
	var in models.SchoolInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Invalid school payload")
		return
	}
	school, err := a.directory.UpdateSchool(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		a.failErr(c, err)
		return
	}
	ok(c, http.StatusOK, school)
}

func (a *API) deleteSchool(c *gin.Context) {
	if err := a.directory.DeleteSchool(c.Request.Context(), c.Param("id")); err != nil {
		a.failErr(c, err)
		return
	}
	ok(c, http.StatusNoContent, nil)
}

func (a *API) schoolAdmins(c *gin.Context) {
	admins, err := a.directory.SchoolAdmins(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.failErr(c, err)
		return
	}
	ok(c, http.StatusOK, admins)
}

func (a *API) assignAdmin(c *gin.Context) {
	var req assignAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Email is required")
		return
	}
	admin, err := a.directory.AssignAdmin(c.Request.Context(), c.Param("id"), req.Email)
	if err != nil {
		a.failErr(c, err)
		return
	}
	ok(c, http.StatusOK, admin)
}

func (a *API) removeAdmin(c *gin.Context) {
	if err := a.directory.RemoveAdmin(c.Request.Context(), c.Param("id"), c.Param("userId")); err != nil {
		a.failErr(c, err)
		return
	}
	ok(c, http.StatusNoContent, nil)
}

func (a *API) listUsers(c *gin.Context) {
	role := models.Role(c.Query("role"))
	if role != "" && !role.Valid() {
		a.failErr(c, service.ErrInvalidInput)
		return
	}
	ok(c, http.StatusOK, a.directory.ListUsers(c.Request.Context(), actor(c), role))
}

func (a *API) createUser(c *gin.Context) {
	var in models.UserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Invalid user payload")
		return
	}
	user, err := a.directory.CreateUser(c.Request.Context(), actor(c), in)
	if err != nil {
		a.failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, user)
}

func (a *API) updateUser(c *gin.Context) {
	var in models.UserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Invalid user payload")
		return
	}
	user, err := a.directory.UpdateUser(c.Request.Context(), actor(c), c.Param("id"), in)
	if err != nil {
		a.failErr(c, err)
		return
	}
	ok(c, http.StatusOK, user)
}

func (a *API) deleteUser(c *gin.Context) {
	if err := a.directory.DeleteUser(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		a.failErr(c, err)
		return
	}
	ok(c, http.StatusNoContent, nil)
}
