package http

import "net/http"

// Actor is the authenticated caller as asserted by the auth layer in front
// of this service. Identity verification itself is an external collaborator;
// we only consume its headers.
type Actor struct {
	ID   string
	Role string
}

const (
	headerUserID   = "X-User-ID"
	headerUserRole = "X-User-Role"
)

const (
	roleCustomer = "customer"
	roleProvider = "provider"
	roleNGO      = "ngo"
)

// actorFrom extracts the caller identity, writing a 401 when absent.
func actorFrom(w http.ResponseWriter, r *http.Request) (Actor, bool) {
	id := r.Header.Get(headerUserID)
	role := r.Header.Get(headerUserRole)
	if id == "" || role == "" {
		writeError(w, http.StatusUnauthorized, codeUnauthenticated, "missing identity headers")
		return Actor{}, false
	}
	return Actor{ID: id, Role: role}, true
}

// requireRole writes a 403 when the actor's role does not match.
func requireRole(w http.ResponseWriter, actor Actor, roles ...string) bool {
	for _, role := range roles {
		if actor.Role == role {
			return true
		}
	}
	writeError(w, http.StatusForbidden, codeForbidden, "role not permitted")
	return false
}
