package models

import "fmt"

// Role tags the principal of a session with its account kind.
type Role string

const (
	RolePatient   Role = "patient"
	RoleCaregiver Role = "caregiver"
)

// ParseAccountKind maps the "tipo" form value to a Role: "0" is a patient, "1" a caregiver.
func ParseAccountKind(kind string) (Role, error) {
	switch kind {
	case "0":
		return RolePatient, nil
	case "1":
		return RoleCaregiver, nil
	default:
		return "", fmt.Errorf("unknown account kind %q", kind)
	}
}

func (r Role) String() string { return string(r) }

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RolePatient || r == RoleCaregiver
}
