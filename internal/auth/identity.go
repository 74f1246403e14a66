package auth

import (
	"github.com/gin-gonic/gin"
)

// Role is the verified caller role. Handlers never branch on raw
// client-supplied fields; they go through Identity.
type Role string

const (
	RoleJobSeeker Role = "job_seeker"
	RoleEmployer  Role = "employer"
	RoleAdmin     Role = "admin"
)

// ParseRole maps a wire value onto a known role. Unknown values map to
// job_seeker, the least privileged role.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin
	case RoleEmployer:
		return RoleEmployer
	default:
		return RoleJobSeeker
	}
}

// Identity is the authenticated caller context carried through every
// pipeline boundary. Verified is false when the gateway sent no role
// header and the role fell back to the default.
type Identity struct {
	Email    string
	Role     Role
	Verified bool
}

// IsAdmin reports whether the identity holds the privileged role.
func (id Identity) IsAdmin() bool { return id.Role == RoleAdmin }

const identityKey = "kozi.identity"

// Middleware derives the caller Identity once per request. The upstream
// gateway terminates the JWT and forwards the verified role and email in
// headers; this is the only place those headers are read.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		rawRole := c.GetHeader("X-User-Role")
		id := Identity{
			Email:    c.GetHeader("X-User-Email"),
			Role:     ParseRole(rawRole),
			Verified: rawRole != "",
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// IdentityFrom returns the Identity attached by Middleware. Missing
// identity degrades to the least privileged role.
func IdentityFrom(c *gin.Context) Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(Identity); ok {
			return id
		}
	}
	return Identity{Role: RoleJobSeeker}
}
