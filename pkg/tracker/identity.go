package tracker

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	VisitorCookieName = "ts_visitor_id"
	SessionCookieName = "ts_session_id"

	visitorCookieTTL = 365 * 24 * time.Hour
	sessionCookieTTL = 24 * time.Hour
)

// NewVisitorID returns a fresh long-lived visitor identifier.
func NewVisitorID() string {
	return uuid.NewString()
}

// NewSessionID returns a fresh session identifier. Sessions roll over daily.
func NewSessionID() string {
	return uuid.NewString()
}

// VisitorCookie builds the persistent visitor cookie. It is never marked
// HttpOnly because the embedded client reads it back on subsequent loads.
func VisitorCookie(value string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     VisitorCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(visitorCookieTTL / time.Second),
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// SessionCookie builds the short-lived session cookie.
func SessionCookie(value string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(sessionCookieTTL / time.Second),
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// EnsureIdentity reads the visitor/session cookies from the request, minting
// and setting fresh ones on the response when absent. Returns the resolved
// (visitorID, sessionID) pair. This is for server-rendered host sites that
// manage the cookies themselves; the analytics API never assigns identity.
func EnsureIdentity(w http.ResponseWriter, r *http.Request, secure bool) (string, string) {
	visitorID := cookieValue(r, VisitorCookieName)
	if visitorID == "" {
		visitorID = NewVisitorID()
		http.SetCookie(w, VisitorCookie(visitorID, secure))
	}

	sessionID := cookieValue(r, SessionCookieName)
	if sessionID == "" {
		sessionID = NewSessionID()
		http.SetCookie(w, SessionCookie(sessionID, secure))
	}

	return visitorID, sessionID
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil || c == nil {
		return ""
	}
	return c.Value
}
