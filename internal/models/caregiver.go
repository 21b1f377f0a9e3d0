package models

// Caregiver is an account with read-only access to every donation request.
type Caregiver struct {
	Account
}
