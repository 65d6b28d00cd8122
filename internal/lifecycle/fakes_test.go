package lifecycle

import (
	"context"
	"errors"
	"strings"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/YehonatanRavoach/SmartCampusAR/internal/model"
)

var sysadmin = Caller{Email: "root@smartcampus.test", Role: "sysadmin"}

type fakeDirectory struct {
	campuses map[string]model.Campus
	admins   map[string]model.Admin

	deletedTrees    []string
	updateAdminErr  error
	updateCampusErr error
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		campuses: make(map[string]model.Campus),
		admins:   make(map[string]model.Admin),
	}
}

func (d *fakeDirectory) GetCampus(_ context.Context, campusID string) (model.Campus, error) {
	campus, ok := d.campuses[campusID]
	if !ok {
		return model.Campus{}, ErrNotFound
	}
	return campus, nil
}

func (d *fakeDirectory) GetAdmin(_ context.Context, adminID string) (model.Admin, error) {
	admin, ok := d.admins[adminID]
	if !ok {
		return model.Admin{}, ErrNotFound
	}
	return admin, nil
}

func (d *fakeDirectory) UpdateCampusStatus(_ context.Context, campusID string, status model.Status) error {
	if d.updateCampusErr != nil {
		return d.updateCampusErr
	}
	campus, ok := d.campuses[campusID]
	if !ok {
		return ErrNotFound
	}
	campus.Status = status
	d.campuses[campusID] = campus
	return nil
}

func (d *fakeDirectory) UpdateAdminStatus(_ context.Context, adminID string, status model.Status) error {
	if d.updateAdminErr != nil {
		return d.updateAdminErr
	}
	admin, ok := d.admins[adminID]
	if !ok {
		return ErrNotFound
	}
	admin.Status = status
	d.admins[adminID] = admin
	return nil
}

func (d *fakeDirectory) DeleteAdminDoc(_ context.Context, adminID string) error {
	delete(d.admins, adminID)
	return nil
}

func (d *fakeDirectory) RemoveCampusAdmin(_ context.Context, campusID, adminID string) (int, error) {
	campus, ok := d.campuses[campusID]
	if !ok {
		return 0, ErrNotFound
	}
	var remaining []string
	for _, id := range campus.AdminIDs {
		if id != adminID {
			remaining = append(remaining, id)
		}
	}
	campus.AdminIDs = remaining
	d.campuses[campusID] = campus
	return len(remaining), nil
}

func (d *fakeDirectory) DeleteCampusTree(_ context.Context, campusID string) error {
	delete(d.campuses, campusID)
	d.deletedTrees = append(d.deletedTrees, campusID)
	return nil
}

func (d *fakeDirectory) ListRejectedAdmins(_ context.Context) ([]model.Admin, error) {
	var rejected []model.Admin
	for _, admin := range d.admins {
		if admin.Status == model.StatusReject {
			rejected = append(rejected, admin)
		}
	}
	return rejected, nil
}

func (d *fakeDirectory) ListRejectedCampuses(_ context.Context) ([]model.Campus, error) {
	var rejected []model.Campus
	for _, campus := range d.campuses {
		if campus.Status == model.StatusReject {
			rejected = append(rejected, campus)
		}
	}
	return rejected, nil
}

type fakeAccounts struct {
	byEmail map[string]model.Account

	setClaimsErr error
	deletedUIDs  []string
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{byEmail: make(map[string]model.Account)}
}

func (a *fakeAccounts) add(uid, email string) {
	a.byEmail[email] = model.Account{UID: uid, Email: email}
}

func (a *fakeAccounts) GetByEmail(_ context.Context, email string) (model.Account, error) {
	account, ok := a.byEmail[email]
	if !ok {
		return model.Account{}, ErrNotFound
	}
	return account, nil
}

func (a *fakeAccounts) SetClaims(_ context.Context, uid string, claims *model.Claims) error {
	if a.setClaimsErr != nil {
		return a.setClaimsErr
	}
	for email, account := range a.byEmail {
		if account.UID == uid {
			account.Claims = claims
			a.byEmail[email] = account
			return nil
		}
	}
	return ErrNotFound
}

func (a *fakeAccounts) DeleteAccount(_ context.Context, uid string) error {
	for email, account := range a.byEmail {
		if account.UID == uid {
			delete(a.byEmail, email)
			a.deletedUIDs = append(a.deletedUIDs, uid)
			return nil
		}
	}
	return ErrNotFound
}

func (a *fakeAccounts) claimsOf(t *testing.T, email string) *model.Claims {
	t.Helper()
	account, ok := a.byEmail[email]
	if !ok {
		t.Fatalf("account %s does not exist", email)
	}
	return account.Claims
}

type fakeBlobs struct {
	objects map[string]bool
}

func newFakeBlobs(paths ...string) *fakeBlobs {
	blobs := &fakeBlobs{objects: make(map[string]bool)}
	for _, path := range paths {
		blobs.objects[path] = true
	}
	return blobs
}

func (b *fakeBlobs) DeletePrefix(_ context.Context, prefix string) (int, error) {
	deleted := 0
	for path := range b.objects {
		if strings.HasPrefix(path, prefix) {
			delete(b.objects, path)
			deleted++
		}
	}
	return deleted, nil
}

func codeOf(t *testing.T, err error) codes.Code {
	t.Helper()
	if err == nil {
		t.Fatalf("expected an error")
	}
	st, ok := status.FromError(err)
	if !ok {
		t.Fatalf("expected a status error, got %v", err)
	}
	return st.Code()
}

func expectCode(t *testing.T, err error, want codes.Code) {
	t.Helper()
	if got := codeOf(t, err); got != want {
		t.Fatalf("expected code %v, got %v (%v)", want, got, err)
	}
}

var errStoreDown = errors.New("store down")
