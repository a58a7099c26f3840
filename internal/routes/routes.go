// Package routes names the portal's navigable paths.
package routes

import "github.com/melalfey/schoolos-admin-portal/internal/models"

const (
	Root                 = "/"
	Login                = "/login"
	Logout               = "/logout"
	SuperAdminDashboard  = "/super-admin/dashboard"
	SuperAdminSchool     = "/super-admin/schools/:id"
	SchoolAdminDashboard = "/school-admin/dashboard"
	SchoolAdminStudents  = "/school-admin/students"
	SchoolAdminStaff     = "/school-admin/staff"
)

// Dashboard is the landing view for user: super-admins land on the
// super-admin dashboard, everyone else on the school-admin dashboard.
func Dashboard(user models.User) string {
	if user.IsSuperAdmin {
		return SuperAdminDashboard
	}
	return SchoolAdminDashboard
}
