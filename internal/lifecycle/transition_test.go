package lifecycle

import (
	"testing"

	"github.com/YehonatanRavoach/SmartCampusAR/internal/model"
)

func TestTransitionAllowed(t *testing.T) {
	statuses := []model.Status{model.StatusPending, model.StatusActive, model.StatusReject}
	for _, from := range statuses {
		for _, to := range statuses {
			allowed := TransitionAllowed(from, to)
			if from == to && allowed {
				t.Fatalf("same-state transition %s -> %s must be rejected", from, to)
			}
			if from != to && !allowed {
				t.Fatalf("cross-state transition %s -> %s must be allowed", from, to)
			}
		}
	}

	if TransitionAllowed("approved", model.StatusActive) {
		t.Fatalf("unknown source status must be rejected")
	}
	if TransitionAllowed(model.StatusPending, "banana") {
		t.Fatalf("unknown target status must be rejected")
	}
}

func TestTransitionClassifiers(t *testing.T) {
	if !isActivation(model.StatusPending, model.StatusActive) || !isActivation(model.StatusReject, model.StatusActive) {
		t.Fatalf("any transition into active is an activation")
	}
	if !isRejection(model.StatusActive, model.StatusReject) || !isRejection(model.StatusPending, model.StatusReject) {
		t.Fatalf("any transition into reject is a rejection")
	}
	if !isDemotion(model.StatusActive, model.StatusPending) || !isDemotion(model.StatusReject, model.StatusPending) {
		t.Fatalf("any transition into pending is a demotion")
	}
	if isActivation(model.StatusActive, model.StatusReject) || isRejection(model.StatusPending, model.StatusActive) {
		t.Fatalf("classifiers must key on the target status")
	}
}
