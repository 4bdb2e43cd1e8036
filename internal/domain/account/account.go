package account

import "strings"

// Identity is the authenticated user's profile as reported by the backend.
// A nil *Identity means "not authenticated".
type Identity struct {
	Login       string
	FirstName   string
	LastName    string
	Email       string
	Authorities []string
}

func (i Identity) DisplayName() string {
	name := strings.TrimSpace(i.FirstName + " " + i.LastName)
	if name == "" {
		return i.Login
	}
	return name
}

func (i Identity) HasAuthority(authority string) bool {
	for _, a := range i.Authorities {
		if a == authority {
			return true
		}
	}
	return false
}

// RegistrationData is the payload for creating a new account.
type RegistrationData struct {
	Username string
	Email    string
	Password string
}

// ProfileUpdate carries the editable profile fields.
type ProfileUpdate struct {
	FirstName string
	LastName  string
	Email     string
}
