package db

import (
	"context"

	"github.com/YehonatanRavoach/SmartCampusAR/internal/model"
)

func (s *Store) CreateBuilding(ctx context.Context, building model.Building) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO campus_buildings (id, campus_id, name, description, latitude, longitude, image_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
	`, building.ID, building.CampusID, building.Name, building.Description,
		building.Latitude, building.Longitude, building.ImageURL)
	return err
}

func (s *Store) CountCampusBuildings(ctx context.Context, campusID string) (int, error) {
	var count int
	err := s.db.QueryRow(ctx, `SELECT count(*) FROM campus_buildings WHERE campus_id = $1`, campusID).Scan(&count)
	return count, err
}
