package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/YehonatanRavoach/SmartCampusAR/internal/lifecycle"
	"github.com/YehonatanRavoach/SmartCampusAR/internal/model"
)

const campusColumns = `id, name, city, country, description, logo_url, map_image_url, storage_folder, status, admin_ids, created_at, updated_at`

func (s *Store) CreateCampus(ctx context.Context, campus model.Campus) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO campuses (id, name, city, country, description, logo_url, map_image_url, storage_folder, status, admin_ids, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
	`, campus.ID, campus.Name, campus.City, campus.Country, campus.Description,
		campus.LogoURL, campus.MapImageURL, campus.StorageFolder, campus.Status, campus.AdminIDs)
	return err
}

func (s *Store) GetCampus(ctx context.Context, campusID string) (model.Campus, error) {
	row := s.db.QueryRow(ctx, `SELECT `+campusColumns+` FROM campuses WHERE id = $1`, campusID)
	return scanCampus(row)
}

func (s *Store) GetCampusByName(ctx context.Context, name string) (model.Campus, error) {
	row := s.db.QueryRow(ctx, `SELECT `+campusColumns+` FROM campuses WHERE name = $1 LIMIT 1`, name)
	return scanCampus(row)
}

// CampusNameExists matches case-insensitively on the trimmed name.
func (s *Store) CampusNameExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM campuses WHERE lower(trim(name)) = lower(trim($1)))
	`, name).Scan(&exists)
	return exists, err
}

func (s *Store) UpdateCampusStatus(ctx context.Context, campusID string, status model.Status) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE campuses SET status = $1, updated_at = now() WHERE id = $2
	`, status, campusID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return lifecycle.ErrNotFound
	}
	return nil
}

// AppendCampusAdmin adds adminID to the campus admin list unless already
// present, in one statement.
func (s *Store) AppendCampusAdmin(ctx context.Context, campusID, adminID string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE campuses
		SET admin_ids = array_append(admin_ids, $1), updated_at = now()
		WHERE id = $2 AND NOT ($1 = ANY(admin_ids))
	`, adminID, campusID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Either the campus is gone or the admin is already listed; tell the
		// two apart before reporting not-found.
		var exists bool
		if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM campuses WHERE id = $1)`, campusID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return lifecycle.ErrNotFound
		}
	}
	return nil
}

func (s *Store) RemoveCampusAdmin(ctx context.Context, campusID, adminID string) (int, error) {
	var remaining int
	err := s.db.QueryRow(ctx, `
		UPDATE campuses
		SET admin_ids = array_remove(admin_ids, $1), updated_at = now()
		WHERE id = $2
		RETURNING cardinality(admin_ids)
	`, adminID, campusID).Scan(&remaining)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, lifecycle.ErrNotFound
	}
	return remaining, err
}

// DeleteCampusTree removes the buildings subtree in rounds of up to 50 rows,
// then the campus document itself. Safe to call on an already-deleted campus.
func (s *Store) DeleteCampusTree(ctx context.Context, campusID string) error {
	const batchSize = 50
	for {
		tag, err := s.db.Exec(ctx, `
			DELETE FROM campus_buildings
			WHERE id IN (SELECT id FROM campus_buildings WHERE campus_id = $1 LIMIT $2)
		`, campusID, batchSize)
		if err != nil {
			return err
		}
		if tag.RowsAffected() < batchSize {
			break
		}
	}
	_, err := s.db.Exec(ctx, `DELETE FROM campuses WHERE id = $1`, campusID)
	return err
}

func (s *Store) ListRejectedCampuses(ctx context.Context) ([]model.Campus, error) {
	rows, err := s.db.Query(ctx, `SELECT `+campusColumns+` FROM campuses WHERE status = $1`, model.StatusReject)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var campuses []model.Campus
	for rows.Next() {
		campus, err := scanCampus(rows)
		if err != nil {
			return nil, err
		}
		campuses = append(campuses, campus)
	}
	return campuses, rows.Err()
}

func scanCampus(row pgx.Row) (model.Campus, error) {
	var campus model.Campus
	err := row.Scan(
		&campus.ID,
		&campus.Name,
		&campus.City,
		&campus.Country,
		&campus.Description,
		&campus.LogoURL,
		&campus.MapImageURL,
		&campus.StorageFolder,
		&campus.Status,
		&campus.AdminIDs,
		&campus.CreatedAt,
		&campus.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Campus{}, lifecycle.ErrNotFound
	}
	return campus, err
}
