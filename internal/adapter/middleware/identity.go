package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"

	"loanledger/internal/domain/session"
)

// HeaderOwnerID carries the owner id asserted by the upstream identity provider.
const HeaderOwnerID = "Ax-Owner-Id"

const sessionKey = "session"

var reOwnerID = regexp.MustCompile(`^[A-Za-z0-9._@-]{1,128}$`)

// Identity turns the owner header into a session.Session on the echo
// context. Requests without a usable owner id are rejected with 401.
func Identity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			owner := strings.TrimSpace(c.Request().Header.Get(HeaderOwnerID))
			if owner == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing " + HeaderOwnerID})
			}
			if !reOwnerID.MatchString(owner) {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid " + HeaderOwnerID})
			}
			c.Set(sessionKey, session.New(owner))
			return next(c)
		}
	}
}

// SessionFrom returns the session set by Identity, or an anonymous one.
func SessionFrom(c echo.Context) session.Session {
	if s, ok := c.Get(sessionKey).(session.Session); ok {
		return s
	}
	return session.Session{}
}
