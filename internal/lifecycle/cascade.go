package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/YehonatanRavoach/SmartCampusAR/internal/model"
)

// Cascade permanently removes rejected admins and campuses together with
// their identity accounts, documents, and stored files.
type Cascade struct {
	dir      Directory
	accounts Accounts
	blobs    Blobs
}

func NewCascade(dir Directory, accounts Accounts, blobs Blobs) *Cascade {
	return &Cascade{dir: dir, accounts: accounts, blobs: blobs}
}

type DeleteResult struct {
	Message       string
	Account       Outcome
	CampusDeleted bool
}

func adminBlobPrefix(storageFolder, adminID string) string {
	return fmt.Sprintf("campuses/%s/Meta/%s/", storageFolder, adminID)
}

func campusBlobPrefix(storageFolder string) string {
	return fmt.Sprintf("campuses/%s/", storageFolder)
}

func (c *Cascade) DeleteAdmin(ctx context.Context, caller Caller, adminID string) (DeleteResult, error) {
	if err := requireSysadmin(caller); err != nil {
		return DeleteResult{}, err
	}
	if adminID == "" {
		return DeleteResult{}, status.Error(codes.InvalidArgument, "adminId is required")
	}

	admin, err := c.dir.GetAdmin(ctx, adminID)
	if errors.Is(err, ErrNotFound) {
		return DeleteResult{}, status.Error(codes.NotFound, "admin not found")
	}
	if err != nil {
		return DeleteResult{}, status.Error(codes.Internal, "admin lookup failed")
	}
	if admin.Email == "" || admin.CampusID == "" {
		return DeleteResult{}, status.Error(codes.InvalidArgument, "admin document is missing required fields")
	}
	if admin.Email == caller.Email {
		return DeleteResult{}, status.Error(codes.FailedPrecondition, "sysadmin cannot delete themselves")
	}

	campus, err := c.dir.GetCampus(ctx, admin.CampusID)
	if errors.Is(err, ErrNotFound) {
		return DeleteResult{}, status.Error(codes.NotFound, "campus not found")
	}
	if err != nil {
		return DeleteResult{}, status.Error(codes.Internal, "campus lookup failed")
	}

	accountOutcome := c.removeAccount(ctx, admin.Email)

	if err := c.dir.DeleteAdminDoc(ctx, adminID); err != nil {
		return DeleteResult{}, status.Error(codes.Internal, "admin deletion failed")
	}
	folder := storageFolderOf(campus)
	if _, err := c.blobs.DeletePrefix(ctx, adminBlobPrefix(folder, adminID)); err != nil {
		return DeleteResult{}, status.Error(codes.Internal, "admin storage deletion failed")
	}

	remaining, err := c.dir.RemoveCampusAdmin(ctx, campus.ID, adminID)
	if err != nil {
		return DeleteResult{}, status.Error(codes.Internal, "campus admin list update failed")
	}
	if remaining > 0 {
		return DeleteResult{Message: "Admin deleted.", Account: accountOutcome}, nil
	}

	// Last admin gone: the campus goes with it.
	if err := c.dir.DeleteCampusTree(ctx, campus.ID); err != nil {
		return DeleteResult{}, status.Error(codes.Internal, "campus deletion failed")
	}
	if _, err := c.blobs.DeletePrefix(ctx, campusBlobPrefix(folder)); err != nil {
		return DeleteResult{}, status.Error(codes.Internal, "campus storage deletion failed")
	}
	return DeleteResult{Message: "Admin and campus deleted.", Account: accountOutcome, CampusDeleted: true}, nil
}

func (c *Cascade) DeleteCampus(ctx context.Context, caller Caller, campusID string) (DeleteResult, error) {
	if err := requireSysadmin(caller); err != nil {
		return DeleteResult{}, err
	}
	if campusID == "" {
		return DeleteResult{}, status.Error(codes.InvalidArgument, "campusId is required")
	}

	campus, err := c.dir.GetCampus(ctx, campusID)
	if errors.Is(err, ErrNotFound) {
		return DeleteResult{}, status.Errorf(codes.NotFound, "campus %s not found", campusID)
	}
	if err != nil {
		return DeleteResult{}, status.Error(codes.Internal, "campus lookup failed")
	}

	// Admin storage is not removed per admin here; the campus-wide prefix
	// delete below covers it.
	for _, adminID := range campus.AdminIDs {
		admin, err := c.dir.GetAdmin(ctx, adminID)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return DeleteResult{}, status.Error(codes.Internal, "admin lookup failed")
		}
		c.removeAccount(ctx, admin.Email)
		if err := c.dir.DeleteAdminDoc(ctx, adminID); err != nil {
			return DeleteResult{}, status.Error(codes.Internal, "admin deletion failed")
		}
	}

	if err := c.dir.DeleteCampusTree(ctx, campusID); err != nil {
		return DeleteResult{}, status.Error(codes.Internal, "campus deletion failed")
	}
	if _, err := c.blobs.DeletePrefix(ctx, campusBlobPrefix(storageFolderOf(campus))); err != nil {
		return DeleteResult{}, status.Error(codes.Internal, "campus storage deletion failed")
	}

	return DeleteResult{Message: fmt.Sprintf("Campus %s deleted.", campusID), CampusDeleted: true}, nil
}

// removeAccount deletes the identity account behind email, best-effort. The
// document store is authoritative; a missing or undeletable account is a
// tolerated residual.
func (c *Cascade) removeAccount(ctx context.Context, email string) Outcome {
	if email == "" {
		return OutcomeSkippedNotFound
	}
	account, err := c.accounts.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return OutcomeSkippedNotFound
	}
	if err != nil {
		log.Printf("account lookup failed for %s: %v", email, err)
		return OutcomeFailed
	}
	if err := c.accounts.DeleteAccount(ctx, account.UID); err != nil {
		log.Printf("account deletion failed for %s: %v", email, err)
		return OutcomeFailed
	}
	return OutcomeApplied
}

func storageFolderOf(campus model.Campus) string {
	if campus.StorageFolder != "" {
		return campus.StorageFolder
	}
	return campus.ID
}

// deleteAdminByID is the tolerant variant used by the cleanup sweep: a
// missing admin or campus is a no-op, not an error. Deleting the last admin
// of a campus cascades into full campus deletion.
func (c *Cascade) deleteAdminByID(ctx context.Context, adminID string) (bool, error) {
	admin, err := c.dir.GetAdmin(ctx, adminID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	c.removeAccount(ctx, admin.Email)

	if err := c.dir.DeleteAdminDoc(ctx, adminID); err != nil {
		return false, err
	}
	if admin.CampusID == "" {
		return true, nil
	}

	campus, err := c.dir.GetCampus(ctx, admin.CampusID)
	if errors.Is(err, ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return true, err
	}
	folder := storageFolderOf(campus)
	if _, err := c.blobs.DeletePrefix(ctx, adminBlobPrefix(folder, adminID)); err != nil {
		return true, err
	}
	remaining, err := c.dir.RemoveCampusAdmin(ctx, campus.ID, adminID)
	if err != nil {
		return true, err
	}
	if remaining == 0 {
		if _, err := c.deleteCampusByID(ctx, campus.ID); err != nil {
			return true, err
		}
	}
	return true, nil
}

// deleteCampusByID removes the campus, all of its admins regardless of their
// status, the buildings subtree, and the storage folder.
func (c *Cascade) deleteCampusByID(ctx context.Context, campusID string) (bool, error) {
	campus, err := c.dir.GetCampus(ctx, campusID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	for _, adminID := range campus.AdminIDs {
		if _, err := c.deleteAdminByID(ctx, adminID); err != nil {
			return false, err
		}
	}

	if err := c.dir.DeleteCampusTree(ctx, campusID); err != nil {
		return false, err
	}
	if _, err := c.blobs.DeletePrefix(ctx, campusBlobPrefix(storageFolderOf(campus))); err != nil {
		return false, err
	}
	return true, nil
}
