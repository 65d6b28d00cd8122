// Package identity is the gateway to login accounts: creation, deletion,
// password resets, and the authorization claims attached to each account.
package identity

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/YehonatanRavoach/SmartCampusAR/internal/crypto"
	"github.com/YehonatanRavoach/SmartCampusAR/internal/lifecycle"
	"github.com/YehonatanRavoach/SmartCampusAR/internal/model"
)

type Gateway struct {
	pool *pgxpool.Pool
}

func NewGateway(pool *pgxpool.Pool) *Gateway {
	return &Gateway{pool: pool}
}

var ErrEmailTaken = errors.New("email already registered")

func (g *Gateway) CreateAccount(ctx context.Context, email, password string) (model.Account, error) {
	hash, err := crypto.HashPassword(password)
	if err != nil {
		return model.Account{}, err
	}
	account := model.Account{UID: uuid.NewString(), Email: email, PasswordHash: hash}
	tag, err := g.pool.Exec(ctx, `
		INSERT INTO accounts (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (email) DO NOTHING
	`, account.UID, account.Email, account.PasswordHash)
	if err != nil {
		return model.Account{}, err
	}
	if tag.RowsAffected() == 0 {
		return model.Account{}, ErrEmailTaken
	}
	return account, nil
}

func (g *Gateway) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	return g.scanAccount(g.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, claims, created_at FROM accounts WHERE email = $1
	`, email))
}

func (g *Gateway) GetByUID(ctx context.Context, uid string) (model.Account, error) {
	return g.scanAccount(g.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, claims, created_at FROM accounts WHERE id = $1
	`, uid))
}

// SetClaims replaces the claims on the account; nil clears them.
func (g *Gateway) SetClaims(ctx context.Context, uid string, claims *model.Claims) error {
	var payload any
	if claims != nil {
		data, err := json.Marshal(claims)
		if err != nil {
			return err
		}
		payload = data
	}
	tag, err := g.pool.Exec(ctx, `UPDATE accounts SET claims = $1 WHERE id = $2`, payload, uid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return lifecycle.ErrNotFound
	}
	return nil
}

func (g *Gateway) DeleteAccount(ctx context.Context, uid string) error {
	tag, err := g.pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, uid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return lifecycle.ErrNotFound
	}
	return nil
}

func (g *Gateway) ResetPassword(ctx context.Context, uid, newPassword string) error {
	hash, err := crypto.HashPassword(newPassword)
	if err != nil {
		return err
	}
	tag, err := g.pool.Exec(ctx, `UPDATE accounts SET password_hash = $1 WHERE id = $2`, hash, uid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return lifecycle.ErrNotFound
	}
	return nil
}

func (g *Gateway) scanAccount(row pgx.Row) (model.Account, error) {
	var account model.Account
	var claims []byte
	err := row.Scan(&account.UID, &account.Email, &account.PasswordHash, &claims, &account.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Account{}, lifecycle.ErrNotFound
	}
	if err != nil {
		return model.Account{}, err
	}
	if len(claims) > 0 {
		account.Claims = &model.Claims{}
		if err := json.Unmarshal(claims, account.Claims); err != nil {
			return model.Account{}, err
		}
	}
	return account, nil
}
