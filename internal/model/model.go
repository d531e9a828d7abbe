package model

import "time"

type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

// ParseRole validates a role string supplied at registration.
func ParseRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return Role(raw), true
	default:
		return "", false
	}
}

type User struct {
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
	Role         Role   `json:"role"`
}

type Session struct {
	ID        string    `json:"id"`
	TokenHash string    `json:"tokenHash"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ACLEntry maps a resource name to the set of actions granted on it.
// An absent resource key means no access; action sets are never left empty.
type ACLEntry map[string][]string

// Has reports whether the entry grants action on resource.
func (e ACLEntry) Has(resource, action string) bool {
	for _, granted := range e[resource] {
		if granted == action {
			return true
		}
	}
	return false
}

type Course struct {
	Course     string   `json:"course"`
	Instructor string   `json:"instructor"`
	Students   []string `json:"students"`
}

type Assignment struct {
	Course     string `json:"course"`
	Title      string `json:"title"`
	Instructor string `json:"instructor"`
}

type Grade struct {
	Course     string  `json:"course"`
	Assignment string  `json:"assignment"`
	Student    string  `json:"student"`
	Grade      float64 `json:"grade"`
}

type Material struct {
	Course string `json:"course"`
	Title  string `json:"title"`
	Link   string `json:"link"`
}

// DefaultACL returns the role-derived permission set granted at registration.
// Students can read every collection; instructors and admins can also write.
func DefaultACL(role Role) ACLEntry {
	resources := []string{"courses", "assignments", "grades", "materials"}
	entry := make(ACLEntry, len(resources))
	for _, resource := range resources {
		if role == RoleStudent {
			entry[resource] = []string{"read"}
		} else {
			entry[resource] = []string{"read", "write"}
		}
	}
	return entry
}
