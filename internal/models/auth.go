package models

import "github.com/golang-jwt/jwt/v5"

// UserRole mirrors the roles issued by the external auth service.
type UserRole string

const (
	RoleDirector UserRole = "DIRECTOR"
	RoleStaff    UserRole = "STAFF"
	RoleStudent  UserRole = "STUDENT"
)

// IsAdministrative reports whether the role registers on behalf of students.
func (r UserRole) IsAdministrative() bool {
	return r == RoleDirector || r == RoleStaff
}

// JWTClaims is the payload of externally issued access tokens. This service
// only validates them; it never issues tokens.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}
