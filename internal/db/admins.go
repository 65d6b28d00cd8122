package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/YehonatanRavoach/SmartCampusAR/internal/lifecycle"
	"github.com/YehonatanRavoach/SmartCampusAR/internal/model"
)

const adminColumns = `id, admin_name, email, role, campus_id, status, approval_file_url, photo_url, created_at`

func (s *Store) CreateAdmin(ctx context.Context, admin model.Admin) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO admin_profiles (id, admin_name, email, role, campus_id, status, approval_file_url, photo_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
	`, admin.ID, admin.AdminName, admin.Email, admin.Role, admin.CampusID, admin.Status,
		admin.ApprovalFileURL, admin.PhotoURL)
	return err
}

func (s *Store) GetAdmin(ctx context.Context, adminID string) (model.Admin, error) {
	row := s.db.QueryRow(ctx, `SELECT `+adminColumns+` FROM admin_profiles WHERE id = $1`, adminID)
	return scanAdmin(row)
}

func (s *Store) UpdateAdminStatus(ctx context.Context, adminID string, status model.Status) error {
	tag, err := s.db.Exec(ctx, `UPDATE admin_profiles SET status = $1 WHERE id = $2`, status, adminID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return lifecycle.ErrNotFound
	}
	return nil
}

// EnrollAdmin adds the admin to the campus list and creates the profile in
// one transaction, so a failed profile insert never leaves a dangling list
// entry.
func (s *Store) EnrollAdmin(ctx context.Context, campusID string, admin model.Admin) error {
	return s.WithTx(ctx, func(tx *Store) error {
		if err := tx.AppendCampusAdmin(ctx, campusID, admin.ID); err != nil {
			return err
		}
		return tx.CreateAdmin(ctx, admin)
	})
}

func (s *Store) DeleteAdminDoc(ctx context.Context, adminID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM admin_profiles WHERE id = $1`, adminID)
	return err
}

func (s *Store) ListRejectedAdmins(ctx context.Context) ([]model.Admin, error) {
	rows, err := s.db.Query(ctx, `SELECT `+adminColumns+` FROM admin_profiles WHERE status = $1`, model.StatusReject)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var admins []model.Admin
	for rows.Next() {
		admin, err := scanAdmin(rows)
		if err != nil {
			return nil, err
		}
		admins = append(admins, admin)
	}
	return admins, rows.Err()
}

func scanAdmin(row pgx.Row) (model.Admin, error) {
	var admin model.Admin
	err := row.Scan(
		&admin.ID,
		&admin.AdminName,
		&admin.Email,
		&admin.Role,
		&admin.CampusID,
		&admin.Status,
		&admin.ApprovalFileURL,
		&admin.PhotoURL,
		&admin.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Admin{}, lifecycle.ErrNotFound
	}
	return admin, err
}
