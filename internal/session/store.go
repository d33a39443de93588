// Package session is the single source of truth for the client's session
// state: the backend-issued CSRF token, the session cookie, and the one-shot
// notice surfaced to the next rendered view.
package session

// Notice is a one-shot flag recorded by the auth lifecycle and consumed
// exactly once by whatever renders next.
type Notice string

const (
	NoticeSignedIn    Notice = "signed_in"
	NoticeSignedOut   Notice = "signed_out"
	NoticeSignInError Notice = "sign_in_error"
)

// Store holds the session state. Reads are synchronous and never perform
// I/O; writes persist for the remainder of the session. A stale token after
// backend-side invalidation is indistinguishable from no token at all: the
// client reacts to the resulting 401, not to the token value.
type Store interface {
	// CSRFToken returns the current token, or an empty string when absent.
	CSRFToken() string

	// SetCSRFToken persists the token issued by the backend sign-in.
	SetCSRFToken(token string) error

	// SessionCookie returns the persisted backend session cookie value, or
	// an empty string when absent.
	SessionCookie() string

	// SetSessionCookie persists the backend session cookie value.
	SetSessionCookie(value string) error

	// SetNotice records a one-shot notice.
	SetNotice(n Notice) error

	// TakeNotice returns the pending notice and clears it. The second
	// return is false when no notice is pending.
	TakeNotice() (Notice, bool)

	// Clear removes all session state. Called on logout and on detected
	// session invalidation.
	Clear() error

	// Close releases the backing store.
	Close() error
}
