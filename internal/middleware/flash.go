package middleware

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/melalfey/schoolos-admin-portal/internal/apiclient"
)

const (
	flashCookie = "schoolos_flash"
	flashKey    = "portal_flash"
	maxFlashes  = 5
)

// Flash is a transient notification shown once.
type Flash struct {
	Level   apiclient.Level `json:"level"`
	Message string          `json:"message"`
}

type flashBox struct {
	mu      sync.Mutex
	flashes []Flash
}

func (b *flashBox) add(f Flash) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.flashes) >= maxFlashes {
		b.flashes = b.flashes[1:]
	}
	b.flashes = append(b.flashes, f)
}

func (b *flashBox) take() []Flash {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.flashes
	b.flashes = nil
	return out
}

// Flashes restores notifications carried over a redirect and clears the
// cookie that carried them.
func Flashes() gin.HandlerFunc {
	return func(c *gin.Context) {
		box := &flashBox{}
		if raw, err := c.Cookie(flashCookie); err == nil && raw != "" {
			for _, f := range decodeFlashes(raw) {
				box.add(f)
			}
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(flashCookie, "", -1, "/", "", false, true)
		}
		c.Set(flashKey, box)
		c.Next()
	}
}

func flashes(c *gin.Context) *flashBox {
	if v, ok := c.Get(flashKey); ok {
		if box, ok := v.(*flashBox); ok {
			return box
		}
	}
	return nil
}

// Notifier queues notifications for the current response.
func Notifier(c *gin.Context) apiclient.Notifier {
	return apiclient.NotifierFunc(func(level apiclient.Level, message string) {
		if box := flashes(c); box != nil {
			box.add(Flash{Level: level, Message: message})
		}
	})
}

// TakeFlashes drains the queued notifications for rendering.
func TakeFlashes(c *gin.Context) []Flash {
	if box := flashes(c); box != nil {
		return box.take()
	}
	return nil
}

func persistFlashes(c *gin.Context) {
	pending := TakeFlashes(c)
	if len(pending) == 0 {
		return
	}
	raw, err := json.Marshal(pending)
	if err != nil {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookie, base64.RawURLEncoding.EncodeToString(raw), 60, "/", "", false, true)
}

func decodeFlashes(raw string) []Flash {
	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}
	var out []Flash
	if err := json.Unmarshal(decoded, &out); err != nil {
		return nil
	}
	return out
}
