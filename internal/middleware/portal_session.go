package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"

	"github.com/melalfey/schoolos-admin-portal/internal/config"
	"github.com/melalfey/schoolos-admin-portal/internal/models"
	"github.com/melalfey/schoolos-admin-portal/internal/session"
	"github.com/melalfey/schoolos-admin-portal/internal/storage"
)

const (
	storeKey       = "portal_session"
	navigatorKey   = "portal_navigator"
	binderKey      = "portal_binder"
	currentUserKey = "current_user"
)

// sessionBinder ties a browser's session id cookie to the Store kept under
// that id.
type sessionBinder struct {
	kv  storage.KV
	cfg config.SessionConfig
	log zerolog.Logger
	nav *responseNavigator
	sid string
}

func (b *sessionBinder) open(ctx context.Context) *session.Store {
	store := session.New(
		storage.WithPrefix(b.kv, b.sid+":"),
		b.nav,
		session.WithLogger(b.log.With().Str("sid", b.sid).Logger()),
	)
	if err := store.Initialize(ctx); err != nil {
		b.log.Warn().Err(err).Str("sid", b.sid).Msg("session restore failed")
	}
	return store
}

func (b *sessionBinder) issue(c *gin.Context, sid string) {
	b.sid = sid
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(b.cfg.CookieName, sid, int(b.cfg.Lifetime.Seconds()), "/", "", b.cfg.CookieSecure, true)
}

// PortalSession binds the browser to a session id cookie and loads that
// browser's session.Store before the handler runs. An authenticated session
// has its cookie and persisted values refreshed on every request, so the
// configured lifetime is an idle timeout.
func PortalSession(kv storage.KV, cfg config.SessionConfig, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		binder := &sessionBinder{kv: kv, cfg: cfg, log: log, nav: &responseNavigator{c: c}}

		sid, err := c.Cookie(cfg.CookieName)
		if err != nil || !validSessionID(sid) {
			binder.issue(c, ksuid.New().String())
		} else {
			binder.sid = sid
		}

		store := binder.open(c.Request.Context())
		if store.IsAuthenticated() {
			binder.issue(c, binder.sid)
			if err := store.Refresh(c.Request.Context()); err != nil {
				log.Warn().Err(err).Str("sid", binder.sid).Msg("session refresh failed")
			}
		}

		c.Set(binderKey, binder)
		c.Set(storeKey, store)
		c.Set(navigatorKey, binder.nav)
		c.Next()
	}
}

// RotateSession moves the browser to a fresh session id and discards
// whatever was stored under the old one. Call it before Store.Login so a
// session id known to someone else never becomes authenticated.
func RotateSession(c *gin.Context) (*session.Store, error) {
	v, ok := c.Get(binderKey)
	if !ok {
		return nil, errors.New("portal session middleware not installed")
	}
	binder := v.(*sessionBinder)
	ctx := c.Request.Context()

	old := storage.WithPrefix(binder.kv, binder.sid+":")
	if err := errors.Join(old.Remove(ctx, session.TokenKey), old.Remove(ctx, session.UserKey)); err != nil {
		return nil, fmt.Errorf("discard previous session: %w", err)
	}

	binder.issue(c, ksuid.New().String())
	store := binder.open(ctx)
	c.Set(storeKey, store)
	return store, nil
}

func validSessionID(sid string) bool {
	_, err := ksuid.Parse(sid)
	return err == nil
}

// responseNavigator turns navigation commands into an HTTP redirect. Only the
// first command of a response takes effect.
type responseNavigator struct {
	mu sync.Mutex
	c  *gin.Context
}

func (n *responseNavigator) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.c.Writer.Written() {
		return
	}
	persistFlashes(n.c)
	n.c.Redirect(http.StatusSeeOther, path)
	// Redirects to non-GET requests carry no body; flush so Written reports true.
	n.c.Writer.WriteHeaderNow()
	n.c.Abort()
}

func Store(c *gin.Context) *session.Store {
	if v, ok := c.Get(storeKey); ok {
		if store, ok := v.(*session.Store); ok {
			return store
		}
	}
	return nil
}

func Navigator(c *gin.Context) session.Navigator {
	if v, ok := c.Get(navigatorKey); ok {
		if nav, ok := v.(session.Navigator); ok {
			return nav
		}
	}
	return session.Discard
}

func CurrentUser(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return models.User{}, false
	}
	user, ok := v.(models.User)
	return user, ok
}
