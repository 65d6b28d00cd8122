package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/YehonatanRavoach/SmartCampusAR/internal/auth"
	"github.com/YehonatanRavoach/SmartCampusAR/internal/model"
)

// Engine validates and applies status changes to campuses and admins and
// keeps dependent admin claims in sync.
type Engine struct {
	dir      Directory
	accounts Accounts
}

func NewEngine(dir Directory, accounts Accounts) *Engine {
	return &Engine{dir: dir, accounts: accounts}
}

// AdminRole is the claims role granted to active admins.
const AdminRole = "admin"

type StatusResult struct {
	Message       string
	UpdatedAdmins int
	Claims        Outcome
}

func requireSysadmin(caller Caller) error {
	if caller == (Caller{}) {
		return status.Error(codes.Unauthenticated, "you must be signed in")
	}
	if caller.Role != auth.RoleSysadmin {
		return status.Error(codes.PermissionDenied, "only sysadmins can perform this operation")
	}
	return nil
}

func (e *Engine) SetAdminStatus(ctx context.Context, caller Caller, adminID, newStatus string) (StatusResult, error) {
	if err := requireSysadmin(caller); err != nil {
		return StatusResult{}, err
	}
	next := model.Status(strings.ToLower(newStatus))
	if adminID == "" || !next.Valid() {
		return StatusResult{}, status.Error(codes.InvalidArgument, "adminId and valid newStatus ('active', 'pending', 'reject') are required")
	}

	admin, err := e.dir.GetAdmin(ctx, adminID)
	if errors.Is(err, ErrNotFound) {
		return StatusResult{}, status.Errorf(codes.NotFound, "admin %s does not exist", adminID)
	}
	if err != nil {
		return StatusResult{}, status.Error(codes.Internal, "admin lookup failed")
	}
	if admin.Email == "" || admin.CampusID == "" {
		return StatusResult{}, status.Error(codes.FailedPrecondition, "admin profile is missing email or campusId")
	}
	if !TransitionAllowed(admin.Status, next) {
		return StatusResult{}, status.Errorf(codes.FailedPrecondition, "transition from %s to %s is not allowed", admin.Status, next)
	}

	if err := e.dir.UpdateAdminStatus(ctx, adminID, next); err != nil {
		return StatusResult{}, status.Error(codes.Internal, "admin status update failed")
	}

	// Claims mirror status: exactly {role, campusId} while active, none
	// otherwise. A missing identity account is tolerated.
	var claims *model.Claims
	if next == model.StatusActive {
		claims = &model.Claims{Role: AdminRole, CampusID: admin.CampusID}
	}
	outcome, err := e.applyClaims(ctx, admin.Email, claims)
	if err != nil {
		return StatusResult{}, err
	}

	return StatusResult{
		Message:       fmt.Sprintf("Admin %s status updated to %s and claims handled.", admin.Email, strings.ToUpper(string(next))),
		UpdatedAdmins: 1,
		Claims:        outcome,
	}, nil
}

func (e *Engine) SetCampusStatus(ctx context.Context, caller Caller, campusID, newStatus string) (StatusResult, error) {
	if err := requireSysadmin(caller); err != nil {
		return StatusResult{}, err
	}
	next := model.Status(strings.ToLower(newStatus))
	if campusID == "" || !next.Valid() {
		return StatusResult{}, status.Error(codes.InvalidArgument, "campusId and valid newStatus ('active', 'pending', 'reject') are required")
	}

	campus, err := e.dir.GetCampus(ctx, campusID)
	if errors.Is(err, ErrNotFound) {
		return StatusResult{}, status.Errorf(codes.NotFound, "campus %s does not exist", campusID)
	}
	if err != nil {
		return StatusResult{}, status.Error(codes.Internal, "campus lookup failed")
	}

	prev := campus.Status
	if !TransitionAllowed(prev, next) {
		return StatusResult{}, status.Errorf(codes.FailedPrecondition, "transition from %s to %s is not allowed", prev, next)
	}

	if err := e.dir.UpdateCampusStatus(ctx, campusID, next); err != nil {
		return StatusResult{}, status.Error(codes.Internal, "campus status update failed")
	}

	result := StatusResult{Claims: OutcomeSkippedNotFound}
	switch {
	case isActivation(prev, next):
		// Only the primary admin is activated; the rest of the list is left
		// untouched, claims included.
		if primary := campus.PrimaryAdminID(); primary != "" {
			admin, err := e.dir.GetAdmin(ctx, primary)
			if err == nil {
				if err := e.dir.UpdateAdminStatus(ctx, primary, model.StatusActive); err != nil {
					return StatusResult{}, status.Error(codes.Internal, "primary admin update failed")
				}
				result.UpdatedAdmins++
				outcome, err := e.applyClaims(ctx, admin.Email, &model.Claims{Role: AdminRole, CampusID: campusID})
				if err != nil {
					return StatusResult{}, err
				}
				result.Claims = outcome
			} else if !errors.Is(err, ErrNotFound) {
				return StatusResult{}, status.Error(codes.Internal, "primary admin lookup failed")
			}
		}

	case isRejection(prev, next):
		for _, adminID := range campus.AdminIDs {
			admin, err := e.dir.GetAdmin(ctx, adminID)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return StatusResult{}, status.Error(codes.Internal, "admin lookup failed")
			}
			if err := e.dir.UpdateAdminStatus(ctx, adminID, model.StatusReject); err != nil {
				return StatusResult{}, status.Error(codes.Internal, "admin status update failed")
			}
			result.UpdatedAdmins++
			outcome, err := e.applyClaims(ctx, admin.Email, nil)
			if err != nil {
				return StatusResult{}, err
			}
			result.Claims = outcome
		}

	case isDemotion(prev, next):
		// Claims stay as they are until an explicit active/reject decision.
		for _, adminID := range campus.AdminIDs {
			if _, err := e.dir.GetAdmin(ctx, adminID); errors.Is(err, ErrNotFound) {
				continue
			} else if err != nil {
				return StatusResult{}, status.Error(codes.Internal, "admin lookup failed")
			}
			if err := e.dir.UpdateAdminStatus(ctx, adminID, model.StatusPending); err != nil {
				return StatusResult{}, status.Error(codes.Internal, "admin status update failed")
			}
			result.UpdatedAdmins++
		}
	}

	result.Message = fmt.Sprintf("Campus status updated to '%s' (from '%s'), %d admin(s) updated.", next, prev, result.UpdatedAdmins)
	return result, nil
}

// applyClaims sets (or clears, when claims is nil) the claims on the account
// behind email. A missing or unreadable account is an acceptable skip; a
// failed claims write is not.
func (e *Engine) applyClaims(ctx context.Context, email string, claims *model.Claims) (Outcome, error) {
	account, err := e.accounts.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return OutcomeSkippedNotFound, nil
	}
	if err != nil {
		return OutcomeFailed, nil
	}
	if err := e.accounts.SetClaims(ctx, account.UID, claims); err != nil {
		return OutcomeFailed, status.Error(codes.Internal, "claims update failed")
	}
	return OutcomeApplied, nil
}
