package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medassist/prescription-analyzer/internal/common"
	"github.com/medassist/prescription-analyzer/internal/session"
)

const (
	SessionStateKey   = "session_state"
	sessionCookieName = "sid"
)

// Session binds a session.State to the request via a cookie and holds the
// per-session action lock for the request's duration, so a session's actions
// never run concurrently.
func Session(m *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var st *session.State

		sid, err := c.Cookie(sessionCookieName)
		if err != nil || sid == "" {
			sid, st, err = m.NewSession()
			if err != nil {
				common.Fail(c, http.StatusInternalServerError, 50001, "failed to create session")
				c.Abort()
				return
			}
			c.SetCookie(sessionCookieName, sid, 0, "/", "", false, true)
		} else {
			st = m.Ensure(sid)
		}

		st.Lock()
		defer st.Unlock()

		c.Set(SessionStateKey, st)
		c.Next()
	}
}
