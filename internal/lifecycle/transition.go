package lifecycle

import "github.com/YehonatanRavoach/SmartCampusAR/internal/model"

// One transition table covers both campuses and admins: every cross-state
// move is permitted, same-state no-ops are not. Leaving reject re-enters the
// normal lifecycle; rejected entities that are never re-admitted get removed
// by the cleanup sweep.
func TransitionAllowed(from, to model.Status) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	return from != to
}

// Transition classes, named after their effect on the campus admin list.

// activation promotes only the primary admin.
func isActivation(from, to model.Status) bool {
	return (from == model.StatusPending || from == model.StatusReject) && to == model.StatusActive
}

// rejection flags every admin and clears their claims.
func isRejection(from, to model.Status) bool {
	return (from == model.StatusActive || from == model.StatusPending) && to == model.StatusReject
}

// demotion sets every admin back to pending, leaving claims untouched until
// an explicit active/reject decision is made.
func isDemotion(from, to model.Status) bool {
	return (from == model.StatusActive || from == model.StatusReject) && to == model.StatusPending
}
