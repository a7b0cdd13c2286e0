package shared

import "strings"

// Actor is the authenticated caller resolved by the gateway.
type Actor struct {
	ID           int64
	Role         string
	Capabilities []string
}

// Can reports whether the actor was granted the capability.
func (a Actor) Can(capability string) bool {
	capability = strings.ToLower(strings.TrimSpace(capability))
	for _, c := range a.Capabilities {
		if strings.ToLower(c) == capability {
			return true
		}
	}
	return false
}
