package models

import "github.com/golang-jwt/jwt/v5"

// Role controls calendar visibility scope.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleTutor   Role = "TUTOR"
	RoleStudent Role = "STUDENT"
)

// Viewer is the authenticated identity a calendar is resolved for.
type Viewer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// CacheScope returns the cache-key fragment for this viewer's visibility.
// Admins and tutors see the full class list and share one scope; students see
// only their own classes.
func (v Viewer) CacheScope() string {
	if v.Role == RoleStudent {
		return "student:" + v.Email
	}
	return "all"
}

// ViewerClaims is the JWT payload carried by access tokens.
type ViewerClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Viewer converts claims into the domain identity.
func (c *ViewerClaims) Viewer() Viewer {
	return Viewer{ID: c.Subject, Email: c.Email, Role: Role(c.Role)}
}
