package middleware

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/melalfey/schoolos-admin-portal/internal/gate"
	"github.com/melalfey/schoolos-admin-portal/internal/routes"
	"github.com/melalfey/schoolos-admin-portal/internal/views"
)

// Gate guards a route group with an access requirement. It must run after
// PortalSession.
func Gate(req gate.Requirement) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := Store(c)
		if store == nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		decision := gate.Evaluate(store.Current(), req)
		switch decision.State {
		case gate.StateLoading:
			c.Header("Retry-After", "1")
			c.HTML(http.StatusServiceUnavailable, views.Loading, gin.H{})
			c.Abort()
		case gate.StateUnauthenticated:
			Navigator(c).Navigate(decision.Redirect)
			c.Abort()
		case gate.StateForbiddenSuperAdmin:
			c.HTML(http.StatusForbidden, views.AccessDenied, gin.H{
				"User":     decision.User,
				"Fallback": decision.Fallback,
				"Flashes":  TakeFlashes(c),
			})
			c.Abort()
		case gate.StateForbiddenRole:
			c.HTML(http.StatusForbidden, views.Unauthorized, gin.H{
				"User":    decision.User,
				"Back":    backLink(c),
				"Flashes": TakeFlashes(c),
			})
			c.Abort()
		case gate.StateAuthorized:
			c.Set(currentUserKey, *decision.User)
			c.Next()
		}
	}
}

// backLink is where "go back" leads: the referring page when it is ours,
// otherwise the login page.
func backLink(c *gin.Context) string {
	ref, err := url.Parse(c.Request.Referer())
	if err != nil || ref.Path == "" || (ref.Host != "" && ref.Host != c.Request.Host) {
		return routes.Login
	}
	return ref.RequestURI()
}
