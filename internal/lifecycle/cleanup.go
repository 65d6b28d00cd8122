package lifecycle

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	cleanupRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "approval_cleanup_runs_total",
		Help: "Completed cleanup sweeps over rejected entities.",
	})
	cleanupDeletedAdmins = promauto.NewCounter(prometheus.CounterOpts{
		Name: "approval_cleanup_deleted_admins_total",
		Help: "Rejected admins removed by cleanup sweeps.",
	})
	cleanupDeletedCampuses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "approval_cleanup_deleted_campuses_total",
		Help: "Rejected campuses removed by cleanup sweeps.",
	})
)

type CleanupResult struct {
	DeletedAdmins   int `json:"deletedAdmins"`
	DeletedCampuses int `json:"deletedCampuses"`
}

// CleanupRejected deletes every admin and campus flagged reject. Admins go
// first; campuses emptied (and therefore deleted) by an admin's cascade are
// skipped in the campus pass by id, without re-checking existence.
func (c *Cascade) CleanupRejected(ctx context.Context) (CleanupResult, error) {
	var result CleanupResult
	processed := make(map[string]bool)

	admins, err := c.dir.ListRejectedAdmins(ctx)
	if err != nil {
		return result, status.Error(codes.Internal, "rejected admin query failed")
	}
	for _, admin := range admins {
		deleted, err := c.deleteAdminByID(ctx, admin.ID)
		if err != nil {
			return result, status.Error(codes.Internal, "rejected admin cleanup failed")
		}
		if deleted {
			result.DeletedAdmins++
		}
		if admin.CampusID != "" {
			processed[admin.CampusID] = true
		}
	}

	campuses, err := c.dir.ListRejectedCampuses(ctx)
	if err != nil {
		return result, status.Error(codes.Internal, "rejected campus query failed")
	}
	for _, campus := range campuses {
		if processed[campus.ID] {
			continue
		}
		deleted, err := c.deleteCampusByID(ctx, campus.ID)
		if err != nil {
			return result, status.Error(codes.Internal, "rejected campus cleanup failed")
		}
		if deleted {
			result.DeletedCampuses++
		}
	}

	cleanupRuns.Inc()
	cleanupDeletedAdmins.Add(float64(result.DeletedAdmins))
	cleanupDeletedCampuses.Add(float64(result.DeletedCampuses))
	return result, nil
}
