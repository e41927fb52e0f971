package mdxpress

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	"github.com/eringen/mdxpress/views"
)

// Role is a user's permission level.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleReader Role = "reader"
)

// User is the caller resolved by an Authenticator.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// CanEdit reports whether u may write posts. Only admins can.
func CanEdit(u *User) bool {
	return u != nil && u.Role == RoleAdmin
}

// Authenticator resolves the user behind a request. A nil user means the
// caller is anonymous.
type Authenticator interface {
	CurrentUser(c echo.Context) (*User, error)
}

// Anonymous treats every caller as logged out.
type Anonymous struct{}

func (Anonymous) CurrentUser(echo.Context) (*User, error) { return nil, nil }

// SessionAuth reads the editor set by the login form from the cookie session.
type SessionAuth struct{}

func (SessionAuth) CurrentUser(c echo.Context) (*User, error) {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return nil, nil
	}
	if auth, ok := sess.Values["authenticated"].(bool); !ok || !auth {
		return nil, nil
	}
	name, _ := sess.Values["user"].(string)
	return &User{ID: name, Name: name, Role: RoleAdmin}, nil
}

func setEditorSession(c echo.Context) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	sess.Values["authenticated"] = true
	sess.Values["user"] = "editor"
	return sess.Save(c.Request(), c.Response())
}

func clearEditorSession(c echo.Context) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	delete(sess.Values, "authenticated")
	delete(sess.Values, "user")
	return sess.Save(c.Request(), c.Response())
}

// currentUser resolves the caller, treating lookup failures as anonymous.
func (a *App) currentUser(c echo.Context) *User {
	u, err := a.Auth.CurrentUser(c)
	if err != nil {
		c.Logger().Warnj(map[string]any{"event": "auth.lookup_failed", "error": err.Error()})
		return nil
	}
	return u
}

// canWrite reports whether the caller may write posts, upload images and
// see drafts. Without RequireAuth every caller can.
func (a *App) canWrite(c echo.Context) bool {
	if !a.Config.RequireAuth {
		return true
	}
	return CanEdit(a.currentUser(c))
}

func (a *App) handleLoginPage(c echo.Context) error {
	if CanEdit(a.currentUser(c)) {
		return c.Redirect(http.StatusSeeOther, "/editor/")
	}
	return Render(c, a.Views.Login(views.LoginPage{
		Site:      a.siteMeta(),
		CSRFToken: CsrfToken(c),
		Enabled:   a.Config.EditorPassword != "",
	}))
}

func (a *App) handleLogin(c echo.Context) error {
	if !a.loginLimiter.Check(c.RealIP()) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	pass := c.FormValue("password")
	if a.Config.EditorPassword != "" &&
		subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.EditorPassword)) == 1 {
		if err := setEditorSession(c); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/editor/")
	}
	a.loginLimiter.Record(c.RealIP())
	return RenderStatus(c, http.StatusUnauthorized, a.Views.Login(views.LoginPage{
		Site:      a.siteMeta(),
		CSRFToken: CsrfToken(c),
		Enabled:   a.Config.EditorPassword != "",
		Failed:    true,
	}))
}

func handleLogout(c echo.Context) error {
	if err := clearEditorSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/")
}
