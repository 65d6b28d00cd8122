// Package blob stores uploaded files as path-keyed objects and supports the
// prefix-wide deletes the cascade relies on.
package blob

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/YehonatanRavoach/SmartCampusAR/internal/crypto"
	"github.com/YehonatanRavoach/SmartCampusAR/internal/lifecycle"
	"github.com/YehonatanRavoach/SmartCampusAR/internal/model"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Put writes the object (replacing any existing one at the same path) and
// returns its tokened download URL.
func (s *Store) Put(ctx context.Context, path, contentType string, data []byte) (string, error) {
	token, err := crypto.NewDownloadToken()
	if err != nil {
		return "", err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO blobs (path, content_type, data, token, created_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (path) DO UPDATE SET content_type = $2, data = $3, token = $4
	`, path, contentType, data, token)
	if err != nil {
		return "", err
	}
	return DownloadURL(path, token), nil
}

func DownloadURL(path, token string) string {
	return fmt.Sprintf("/files/%s?token=%s", url.PathEscape(path), token)
}

func (s *Store) Get(ctx context.Context, path string) (model.Blob, error) {
	var b model.Blob
	err := s.pool.QueryRow(ctx, `
		SELECT path, content_type, data, token, created_at FROM blobs WHERE path = $1
	`, path).Scan(&b.Path, &b.ContentType, &b.Data, &b.Token, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Blob{}, lifecycle.ErrNotFound
	}
	return b, err
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT path FROM blobs WHERE starts_with(path, $1)`, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, rows.Err()
}

// DeletePrefix removes every object under prefix. The per-object deletes run
// as one concurrent batch; any single failure fails the batch as a whole.
func (s *Store) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	paths, err := s.List(ctx, prefix)
	if err != nil {
		return 0, err
	}
	group, ctx := errgroup.WithContext(ctx)
	for _, path := range paths {
		path := path
		group.Go(func() error {
			_, err := s.pool.Exec(ctx, `DELETE FROM blobs WHERE path = $1`, path)
			return err
		})
	}
	if err := group.Wait(); err != nil {
		return 0, err
	}
	return len(paths), nil
}
