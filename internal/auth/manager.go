package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"amparo/internal/logging"
)

const (
	principalKey = "auth.principal"
	sessionIDKey = "auth.session_id"
)

// CookieOptions configures the session cookie.
type CookieOptions struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

// Manager issues, resolves and revokes sessions for gin requests.
type Manager struct {
	store  SessionStore
	cookie CookieOptions
}

// NewManager creates a Manager backed by store.
func NewManager(store SessionStore, cookie CookieOptions) *Manager {
	return &Manager{store: store, cookie: cookie}
}

func (m *Manager) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookie.Name, value, maxAge, "/", "", m.cookie.Secure, true)
}

func (m *Manager) clearCookie(c *gin.Context) {
	m.setCookie(c, "", -1)
}

// Middleware resolves the session cookie into a principal. Requests without a
// valid session continue anonymously; a stale cookie is cleared. A session whose
// role is unknown is deleted.
func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(m.cookie.Name)
		if err != nil || token == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		session, err := m.store.Get(ctx, token)
		switch {
		case err == nil && !session.Principal.Role.Valid():
			logging.Ctx(ctx).Warn().Str("role", session.Principal.Role.String()).Msg("dropping session with unknown role")
			if err := m.store.Delete(ctx, session.ID); err != nil {
				logging.Ctx(ctx).Error().Err(err).Msg("failed to delete session")
			}
			m.clearCookie(c)
		case err == nil:
			c.Set(principalKey, session.Principal)
			c.Set(sessionIDKey, session.ID)
		case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrSessionExpired):
			m.clearCookie(c)
		default:
			logging.Ctx(ctx).Error().Err(err).Msg("failed to load session")
		}
		c.Next()
	}
}

// CurrentPrincipal returns the principal resolved by Middleware.
func CurrentPrincipal(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

// RequireLogin aborts anonymous requests after calling deny.
func RequireLogin(deny gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentPrincipal(c); !ok {
			deny(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

// Login starts a new session for p and revokes the one the browser carried, if any.
func (m *Manager) Login(c *gin.Context, p Principal) error {
	ctx := c.Request.Context()
	if old, err := c.Cookie(m.cookie.Name); err == nil && old != "" {
		if err := m.store.Delete(ctx, old); err != nil {
			return err
		}
	}

	session, err := NewSession(p, m.cookie.TTL)
	if err != nil {
		return err
	}
	if err := m.store.Create(ctx, session); err != nil {
		return err
	}

	m.setCookie(c, session.ID, int(m.cookie.TTL.Seconds()))
	c.Set(principalKey, p)
	c.Set(sessionIDKey, session.ID)
	return nil
}

// Logout deletes the current session and expires the cookie.
func (m *Manager) Logout(c *gin.Context) error {
	m.clearCookie(c)
	id := c.GetString(sessionIDKey)
	c.Set(principalKey, nil)
	if id == "" {
		return nil
	}
	return m.store.Delete(c.Request.Context(), id)
}

// Refresh replaces the principal stored in the current session.
func (m *Manager) Refresh(c *gin.Context, p Principal) error {
	id := c.GetString(sessionIDKey)
	if id == "" {
		return ErrSessionNotFound
	}
	session, err := m.store.Get(c.Request.Context(), id)
	if err != nil {
		return err
	}
	session.Principal = p
	if err := m.store.Update(c.Request.Context(), session); err != nil {
		return err
	}
	c.Set(principalKey, p)
	return nil
}

// RevokeAccount deletes every session of the account and expires the cookie.
func (m *Manager) RevokeAccount(c *gin.Context, accountKey string) error {
	m.clearCookie(c)
	c.Set(principalKey, nil)
	_, err := m.store.DeleteByAccount(c.Request.Context(), accountKey)
	return err
}
