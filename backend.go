package tally

// Backend identifies which storage implementation serves an operation.
type Backend string

const (
	BackendLocal  Backend = "local"
	BackendRemote Backend = "remote"
)

// SelectBackend decides which backend an operation targets. It is the single
// source of truth for routing: the remote store is selected only when the
// session is authenticated and remote credentials are configured. Pure, no
// side effects.
func SelectBackend(isAuthenticated, hasRemoteCredentials bool) Backend {
	if isAuthenticated && hasRemoteCredentials {
		return BackendRemote
	}
	return BackendLocal
}
