// Package target defines the addressable entities the notification store
// routes to: users and teams, each with per-mode contact destinations.
package target

// Kind distinguishes the two target types.
type Kind string

const (
	KindUser Kind = "user"
	KindTeam Kind = "team"
)

// Contacts maps a contact mode name (sms, call, email, ...) to a
// destination. At most one destination exists per mode.
type Contacts map[string]string

// Target is an addressable entity owned by the persistence gateway.
// Inactive targets are retained when dependent history exists but are
// excluded from plan derivation.
type Target struct {
	ID     uint
	Name   string
	Kind   Kind
	Active bool
}
