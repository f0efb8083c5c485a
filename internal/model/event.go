package model

import "encoding/json"

// AdminGroup is the singleton group every admin observer joins. User
// groups are named by the user id they belong to.
const AdminGroup = "admin"

// StatusUpdateEvent is one order-status notification in flight. Payload
// keeps the original JSON object untouched so the relay can re-emit it
// verbatim; UserID and IsAdminUpdate are lifted out of it only for
// target resolution.
type StatusUpdateEvent struct {
	UserID        string
	IsAdminUpdate bool
	Payload       json.RawMessage
}

// TargetGroup resolves the single group this event is addressed to.
// The admin flag dominates: an admin update never reaches a user group.
// An empty result means the event has no resolvable target and must be
// dropped silently.
func (e StatusUpdateEvent) TargetGroup() string {
	if e.IsAdminUpdate {
		return AdminGroup
	}
	return e.UserID
}
