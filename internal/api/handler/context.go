package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// sessionHeader carries the caller's realtime session id. Mutation events
// triggered by a request carrying it are not echoed back to that session.
const sessionHeader = "X-Session-ID"

// ctxUserID extracts the authenticated user id injected by the Auth
// middleware. An empty id means the middleware never ran on this route.
func ctxUserID(c echo.Context) (string, error) {
	id, _ := c.Get("user_id").(string)
	if id == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return id, nil
}

// ctxOrigin returns the caller's realtime session id, if any.
func ctxOrigin(c echo.Context) string {
	return c.Request().Header.Get(sessionHeader)
}
