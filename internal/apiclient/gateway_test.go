package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/melalfey/schoolos-admin-portal/internal/models"
	"github.com/melalfey/schoolos-admin-portal/internal/routes"
	"github.com/melalfey/schoolos-admin-portal/internal/session"
	"github.com/melalfey/schoolos-admin-portal/internal/storage"
)

type notification struct {
	level   Level
	message string
}

type recordingNotifier struct {
	mu    sync.Mutex
	items []notification
}

func (r *recordingNotifier) Notify(level Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, notification{level, message})
}

func (r *recordingNotifier) all() []notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notification(nil), r.items...)
}

type fixture struct {
	kv       *storage.Memory
	nav      *session.Recorder
	store    *session.Store
	notifier *recordingNotifier
	gw       *Gateway
}

func newFixture(t *testing.T, handler http.Handler) *fixture {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return newFixtureURL(t, srv.URL)
}

func newFixtureURL(t *testing.T, baseURL string) *fixture {
	t.Helper()
	f := &fixture{
		kv:       storage.NewMemory(),
		nav:      &session.Recorder{},
		notifier: &recordingNotifier{},
	}
	f.store = session.New(f.kv, f.nav)
	require.NoError(t, f.store.Initialize(context.Background()))
	f.gw = New(baseURL+"/api", f.store, WithNotifier(f.notifier))
	return f
}

func (f *fixture) login(t *testing.T, token string) {
	t.Helper()
	user := models.User{ID: "u-1", Email: "admin@school.edu", Role: models.RoleSchoolAdmin}
	require.NoError(t, f.store.Login(context.Background(), token, user))
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestDoAttachesDefaultHeadersAndToken(t *testing.T) {
	var got http.Header
	var path string
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		path = r.URL.RequestURI()
		writeJSON(w, http.StatusOK, `{"success":true,"data":[]}`)
	}))
	f.login(t, "tok_abc")

	_, err := f.gw.Do(context.Background(), Request{Path: "/schools"})
	require.NoError(t, err)

	assert.Equal(t, "/api/schools", path)
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, "Bearer tok_abc", got.Get("Authorization"))
}

func TestDoWithoutSessionOmitsAuthorization(t *testing.T) {
	var auth string
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, `{"data":1}`)
	}))

	_, err := f.gw.Do(context.Background(), Request{Path: "/ping"})
	require.NoError(t, err)
	assert.Empty(t, auth)
}

func TestDoCallerHeadersOverrideDefaults(t *testing.T) {
	var got http.Header
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		writeJSON(w, http.StatusOK, `{"data":null}`)
	}))
	f.login(t, "tok_abc")

	_, err := f.gw.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/upload",
		Body:   []byte("raw"),
		Header: http.Header{
			"Content-Type":  {"text/plain"},
			"Authorization": {"Bearer other"},
			"X-School":      {"s-1"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "text/plain", got.Get("Content-Type"))
	assert.Equal(t, "Bearer other", got.Get("Authorization"))
	assert.Equal(t, "s-1", got.Get("X-School"))
}

func TestDoEncodesBodyAndQuery(t *testing.T) {
	var body map[string]string
	var role string
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role = r.URL.Query().Get("role")
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusCreated, `{"data":{"ok":true}}`)
	}))

	_, err := f.gw.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/users",
		Query:  map[string][]string{"role": {"teacher"}},
		Body:   map[string]string{"email": "t@school.edu"},
	})
	require.NoError(t, err)
	assert.Equal(t, "teacher", role)
	assert.Equal(t, "t@school.edu", body["email"])
}

func TestDoUnwrapsEnvelope(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"wrapped object", `{"success":true,"data":{"id":"s-1"}}`, `{"id":"s-1"}`},
		{"wrapped null", `{"success":true,"data":null}`, `null`},
		{"unwrapped object", `{"id":"s-1","name":"North"}`, `{"id":"s-1","name":"North"}`},
		{"unwrapped array", `[{"id":"s-1"}]`, `[{"id":"s-1"}]`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, tc.body)
			}))

			data, err := f.gw.Do(context.Background(), Request{Path: "/x"})
			require.NoError(t, err)
			assert.JSONEq(t, tc.want, string(data))
		})
	}
}

func TestDoEmptySuccessBody(t *testing.T) {
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	data, err := f.gw.Do(context.Background(), Request{Method: http.MethodDelete, Path: "/schools/s-1"})
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestDoFailureCarriesEnvelopeMessage(t *testing.T) {
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, `{"success":false,"message":"School domain already taken"}`)
	}))
	f.login(t, "tok")

	_, err := f.gw.Do(context.Background(), Request{Method: http.MethodPost, Path: "/schools"})
	require.Error(t, err)

	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindAPI, apiErr.Kind)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "School domain already taken", apiErr.Error())
	assert.Equal(t, []notification{{LevelError, "School domain already taken"}}, f.notifier.all())
	assert.True(t, f.store.IsAuthenticated(), "non-401 failures keep the session")
}

func TestDoFailureFallbackMessage(t *testing.T) {
	bodies := []string{`{"success":false}`, `<html>bad gateway</html>`, ``}
	for _, body := range bodies {
		f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(body))
		}))

		_, err := f.gw.Do(context.Background(), Request{Path: "/x"})
		require.Error(t, err)
		assert.Equal(t, "API request failed", Message(err), "body %q", body)
	}
}

func TestDoUnauthorizedTearsDownSession(t *testing.T) {
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"success":false,"message":"Token expired"}`)
	}))
	f.login(t, "stale")

	_, err := f.gw.Do(context.Background(), Request{Path: "/classes"})
	require.Error(t, err)

	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, "Token expired", Message(err))
	assert.False(t, f.store.IsAuthenticated())
	assert.Equal(t, 0, f.kv.Len())
	assert.Equal(t, []string{routes.SchoolAdminDashboard, routes.Login}, f.nav.Paths())
	assert.Empty(t, f.notifier.all(), "expiry redirects instead of notifying")
}

func TestDoConcurrentUnauthorizedRedirectsOncePerCall(t *testing.T) {
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"message":"Unauthorized"}`)
	}))
	f.login(t, "stale")

	const calls = 5
	var wg sync.WaitGroup
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.gw.Do(context.Background(), Request{Path: "/students"})
			assert.True(t, IsUnauthorized(err))
		}()
	}
	wg.Wait()

	assert.False(t, f.store.IsAuthenticated())
	assert.Equal(t, 0, f.kv.Len())

	logins := 0
	for _, p := range f.nav.Paths() {
		if p == routes.Login {
			logins++
		}
	}
	assert.Equal(t, calls, logins)
}

func TestDoUnauthorizedAfterReloginKeepsNewSession(t *testing.T) {
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entered <- struct{}{}
		<-release
		writeJSON(w, http.StatusUnauthorized, `{"message":"Unauthorized"}`)
	}))
	f.login(t, "old")

	done := make(chan error)
	go func() {
		_, err := f.gw.Do(context.Background(), Request{Path: "/slow"})
		done <- err
	}()

	<-entered
	f.login(t, "new")
	close(release)

	err := <-done
	assert.True(t, IsUnauthorized(err))
	assert.True(t, f.store.IsAuthenticated())
	assert.Equal(t, "new", f.store.Token())
}

func TestDoAnonymousUnauthorizedDoesNotExpire(t *testing.T) {
	var auth string
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusUnauthorized, `{"message":"Invalid email or password"}`)
	}))
	f.login(t, "tok")

	_, err := f.gw.Do(context.Background(), Request{Method: http.MethodPost, Path: "/auth/login", Anonymous: true})
	require.Error(t, err)

	assert.Empty(t, auth)
	assert.True(t, f.store.IsAuthenticated())
	assert.Equal(t, []notification{{LevelError, "Invalid email or password"}}, f.notifier.all())
}

func TestDoNetworkFailureIsUniformError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	f := newFixtureURL(t, baseURL)
	f.login(t, "tok")

	_, err := f.gw.Do(context.Background(), Request{Path: "/schools"})
	require.Error(t, err)

	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindNetwork, apiErr.Kind)
	assert.True(t, IsNetwork(err))
	assert.False(t, IsUnauthorized(err))
	assert.NotEmpty(t, apiErr.Message)
	assert.Len(t, f.notifier.all(), 1)
	assert.True(t, f.store.IsAuthenticated())
}

func TestDoInvalidJSONSuccessBody(t *testing.T) {
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html>"))
	}))

	_, err := f.gw.Do(context.Background(), Request{Path: "/x"})
	require.Error(t, err)
	apiErr, _ := AsError(err)
	assert.Equal(t, KindAPI, apiErr.Kind)
}

func TestCallDecodesPayload(t *testing.T) {
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":true,"data":[{"id":"s-1","name":"North High","domain":"north.edu","isActive":true}]}`)
	}))

	schools, err := Call[[]models.School](context.Background(), f.gw, Request{Path: "/schools"})
	require.NoError(t, err)
	require.Len(t, schools, 1)
	assert.Equal(t, "North High", schools[0].Name)
	assert.True(t, schools[0].IsActive)
}

func TestCallDecodeMismatchIsAPIError(t *testing.T) {
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"data":"not a list"}`)
	}))

	_, err := Call[[]models.School](context.Background(), f.gw, Request{Path: "/schools"})
	require.Error(t, err)
	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindAPI, apiErr.Kind)
}
