package lifecycle

import (
	"context"
	"errors"

	"github.com/YehonatanRavoach/SmartCampusAR/internal/model"
)

// ErrNotFound is returned by every store when the referenced document,
// account, or object does not exist.
var ErrNotFound = errors.New("not found")

// Directory is the document store holding campus and admin documents.
type Directory interface {
	GetCampus(ctx context.Context, campusID string) (model.Campus, error)
	GetAdmin(ctx context.Context, adminID string) (model.Admin, error)
	UpdateCampusStatus(ctx context.Context, campusID string, status model.Status) error
	UpdateAdminStatus(ctx context.Context, adminID string, status model.Status) error
	DeleteAdminDoc(ctx context.Context, adminID string) error
	// RemoveCampusAdmin atomically removes adminID from the campus admin list
	// and reports how many admins remain.
	RemoveCampusAdmin(ctx context.Context, campusID, adminID string) (int, error)
	// DeleteCampusTree removes the campus document and its buildings subtree.
	DeleteCampusTree(ctx context.Context, campusID string) error
	ListRejectedAdmins(ctx context.Context) ([]model.Admin, error)
	ListRejectedCampuses(ctx context.Context) ([]model.Campus, error)
}

// Accounts is the identity provider holding login accounts and their claims.
type Accounts interface {
	GetByEmail(ctx context.Context, email string) (model.Account, error)
	// SetClaims replaces the account claims; nil clears them.
	SetClaims(ctx context.Context, uid string, claims *model.Claims) error
	DeleteAccount(ctx context.Context, uid string) error
}

// Blobs is the blob store holding uploaded campus and admin files.
type Blobs interface {
	// DeletePrefix removes every object under prefix and reports how many
	// were removed.
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// Caller is the request-scoped identity of the invoking user, passed
// explicitly into every operation.
type Caller struct {
	Email string
	Role  string
}
