package session

// Requirement is the access level a screen declares.
type Requirement int

const (
	// RequireNone marks a public screen.
	RequireNone Requirement = iota
	// RequireAuth marks a screen for signed-in users. A session still
	// resolving its profile is let through; it will be re-evaluated if
	// the resolution fails.
	RequireAuth
	// RequireAdmin marks a screen for confirmed admins only.
	RequireAdmin
)

// Target is where a denied navigation is sent instead.
type Target string

const (
	// RedirectLogin sends the user to the sign-in screen.
	RedirectLogin Target = "/login"
	// RedirectHome sends the user to the default search screen.
	RedirectHome Target = "/search"
)

// Decision is the outcome of consulting the gate.
type Decision struct {
	// Allow reports whether the screen may render.
	Allow bool
	// Target is the redirect destination when Allow is false.
	Target Target
}

// Decide evaluates a navigation attempt against the current session.
// It is pure: no I/O, no state, safe to call on every navigation. The
// caller must re-invoke it when the session transitions, so a screen
// already on display is redirected away if it is no longer allowed.
func Decide(s Session, req Requirement) Decision {
	switch req {
	case RequireAuth:
		if s.Token == "" {
			return Decision{Target: RedirectLogin}
		}
		return Decision{Allow: true}
	case RequireAdmin:
		if s.Token == "" {
			return Decision{Target: RedirectLogin}
		}
		if s.State == Authenticated && s.User != nil && s.User.IsAdmin() {
			return Decision{Allow: true}
		}
		return Decision{Target: RedirectHome}
	default:
		return Decision{Allow: true}
	}
}
