package tally

// SessionProvider exposes the authentication state of the current user.
// The auth flow itself is an external collaborator; the data layer only
// consults its answers.
type SessionProvider interface {
	// IsAuthenticated reports whether a user session exists.
	IsAuthenticated() bool

	// UserID returns the session identity. ok is false when no user is
	// signed in.
	UserID() (id string, ok bool)
}

// EventType is a session lifecycle event.
type EventType string

const (
	EventSignedIn       EventType = "SIGNED_IN"
	EventSignedOut      EventType = "SIGNED_OUT"
	EventTokenRefreshed EventType = "TOKEN_REFRESHED"
	EventUserUpdated    EventType = "USER_UPDATED"
)

// SessionEvent is delivered by whatever owns the session lifecycle.
// The reconciler is driven by SIGNED_IN events; the rest are passed
// through untouched.
type SessionEvent struct {
	Type   EventType
	UserID string
}

// StaticSession is a SessionProvider with a fixed identity. Useful for the
// CLI (identity from config) and for tests.
type StaticSession struct {
	ID string
}

func (s StaticSession) IsAuthenticated() bool { return s.ID != "" }

func (s StaticSession) UserID() (string, bool) { return s.ID, s.ID != "" }
