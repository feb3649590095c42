package services

import (
	"fmt"

	"grownet-api/models"
)

// Capability is an action gated by role.
type Capability string

const (
	CapConnect           Capability = "connect"
	CapMessage           Capability = "message"
	CapReadNotifications Capability = "read_notifications"
	CapViewMetrics       Capability = "view_metrics"
)

// Authorize reports whether role holds capability. Unknown roles and unknown
// capabilities are always denied.
func Authorize(role models.Role, capability Capability) error {
	if allowed(role, capability) {
		return nil
	}
	return fmt.Errorf("%w: %s cannot %s", ErrForbidden, role, capability)
}

func allowed(role models.Role, capability Capability) bool {
	switch role {
	case models.RoleAdmin:
		switch capability {
		case CapConnect, CapMessage, CapReadNotifications, CapViewMetrics:
			return true
		}
	case models.RoleMentor, models.RoleMentee:
		switch capability {
		case CapConnect, CapMessage, CapReadNotifications:
			return true
		}
	}
	return false
}
