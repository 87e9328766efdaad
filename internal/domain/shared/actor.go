package shared

import "strings"

// Actor identifies who performed a mutating operation. The ledger core never
// authenticates; it only records what the caller reports.
type Actor struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// SystemActor is used when no caller identity was supplied
var SystemActor = Actor{Name: "system", Role: "system"}

// OrSystem returns the actor, or SystemActor when the name is blank
func (a Actor) OrSystem() Actor {
	if strings.TrimSpace(a.Name) == "" {
		return SystemActor
	}
	return a
}
