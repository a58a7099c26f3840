package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/melalfey/schoolos-admin-portal/internal/models"
	"github.com/melalfey/schoolos-admin-portal/internal/routes"
)

func TestAuthServiceLoginThenStoreLandsOnSchoolAdminDashboard(t *testing.T) {
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var creds Credentials
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		if creds.Email != "admin@school.edu" || creds.Password != "secret" {
			writeJSON(w, http.StatusUnauthorized, `{"success":false,"message":"Invalid credentials"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"success":true,"data":{"token":"tok_abc","user":{"id":"u-1","email":"admin@school.edu","role":"school_admin","isSuperAdmin":false}}}`)
	}))

	auth := NewAuthService(f.gw)
	result, err := auth.Login(context.Background(), Credentials{Email: "admin@school.edu", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "tok_abc", result.Token)
	assert.Equal(t, models.RoleSchoolAdmin, result.User.Role)

	require.NoError(t, f.store.Login(context.Background(), result.Token, result.User))
	assert.Equal(t, routes.SchoolAdminDashboard, f.nav.Last())
	assert.Equal(t, "tok_abc", f.store.Token())
}

func TestAuthServiceLoginRejectedLeavesSessionAlone(t *testing.T) {
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"success":false,"message":"Invalid credentials"}`)
	}))

	_, err := NewAuthService(f.gw).Login(context.Background(), Credentials{Email: "x@y.z", Password: "bad"})
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", Message(err))
	assert.False(t, f.store.IsAuthenticated())
	assert.Empty(t, f.nav.Paths())
}

func TestSchoolServiceRequests(t *testing.T) {
	type seen struct{ method, path string }
	var calls []seen
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, seen{r.Method, r.URL.Path})
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/schools":
			writeJSON(w, http.StatusOK, `{"data":[{"id":"s-1","name":"North"}]}`)
		case r.Method == http.MethodGet && r.URL.Path == "/api/schools/s-1/admins":
			writeJSON(w, http.StatusOK, `{"data":[{"id":"u-1","role":"school_admin"}]}`)
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			writeJSON(w, http.StatusOK, `{"data":{"id":"s-1","name":"North"}}`)
		}
	}))
	f.login(t, "tok")
	ctx := context.Background()
	svc := NewSchoolService(f.gw)

	schools, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, schools, 1)

	school, err := svc.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "North", school.Name)

	_, err = svc.Create(ctx, models.SchoolInput{Name: "North", Domain: "north.edu"})
	require.NoError(t, err)
	_, err = svc.Update(ctx, "s-1", models.SchoolInput{Name: "North"})
	require.NoError(t, err)

	admins, err := svc.Admins(ctx, "s-1")
	require.NoError(t, err)
	assert.Len(t, admins, 1)

	_, err = svc.AddAdmin(ctx, "s-1", "a@north.edu")
	require.NoError(t, err)
	require.NoError(t, svc.RemoveAdmin(ctx, "s-1", "u-1"))
	require.NoError(t, svc.Delete(ctx, "s-1"))

	assert.Equal(t, []seen{
		{http.MethodGet, "/api/schools"},
		{http.MethodGet, "/api/schools/s-1"},
		{http.MethodPost, "/api/schools"},
		{http.MethodPut, "/api/schools/s-1"},
		{http.MethodGet, "/api/schools/s-1/admins"},
		{http.MethodPost, "/api/schools/s-1/admins"},
		{http.MethodDelete, "/api/schools/s-1/admins/u-1"},
		{http.MethodDelete, "/api/schools/s-1"},
	}, calls)
}

func TestUserServiceListFiltersByRole(t *testing.T) {
	var queries []string
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.RawQuery)
		writeJSON(w, http.StatusOK, `{"data":[]}`)
	}))
	f.login(t, "tok")
	svc := NewUserService(f.gw)

	_, err := svc.List(context.Background(), "")
	require.NoError(t, err)
	_, err = svc.List(context.Background(), models.RoleStudent)
	require.NoError(t, err)

	assert.Equal(t, []string{"", "role=student"}, queries)
}
