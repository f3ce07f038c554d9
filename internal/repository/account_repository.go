package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/travel-planner/internal/model"
	"github.com/iliyamo/travel-planner/internal/query"
)

// AccountSchema is what admin listings may filter, sort and project on. The
// password columns are deliberately absent.
var AccountSchema = query.NewSchema("accounts", "-createdAt",
	query.Field{Name: "id", Column: "id"},
	query.Field{Name: "name", Column: "name"},
	query.Field{Name: "email", Column: "email"},
	query.Field{Name: "role", Column: "role"},
	query.Field{Name: "avatar", Column: "avatar"},
	query.Field{Name: "createdAt", Column: "created_at", Kind: query.Time},
	query.Field{Name: "updatedAt", Column: "updated_at", Kind: query.Time},
)

const accountColumns = "id, name, email, password_hash, role, avatar, password_changed_at, created_at, updated_at"

type AccountRepo struct{ db DBTX }

func NewAccountRepo(db DBTX) *AccountRepo { return &AccountRepo{db: db} }

// Create assigns an id and timestamps and inserts the account.
func (r *AccountRepo) Create(ctx context.Context, a *model.Account) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	a.CreatedAt, a.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO accounts ("+accountColumns+") VALUES (?,?,?,?,?,?,?,?,?)",
		a.ID, a.Name, a.Email, a.PasswordHash, string(a.Role), a.Avatar, a.PasswordChangedAt, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *AccountRepo) GetByID(ctx context.Context, id string) (*model.Account, error) {
	return r.getOne(ctx, "SELECT "+accountColumns+" FROM accounts WHERE id = ? LIMIT 1", id)
}

// GetByEmail expects an already normalized (trimmed, lower-cased) email.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	return r.getOne(ctx, "SELECT "+accountColumns+" FROM accounts WHERE email = ? LIMIT 1", email)
}

func (r *AccountRepo) getOne(ctx context.Context, q string, arg any) (*model.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx, q, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func scanAccount(row rowScanner) (*model.Account, error) {
	var (
		a         model.Account
		role      string
		avatar    sql.NullString
		changedAt sql.NullTime
	)
	if err := row.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &role, &avatar, &changedAt, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Role = model.Role(role)
	if avatar.Valid {
		a.Avatar = &avatar.String
	}
	if changedAt.Valid {
		t := changedAt.Time.UTC()
		a.PasswordChangedAt = &t
	}
	return &a, nil
}

// Update writes the profile columns (name, email, role, avatar).
func (r *AccountRepo) Update(ctx context.Context, a *model.Account) error {
	a.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	res, err := r.db.ExecContext(ctx,
		"UPDATE accounts SET name = ?, email = ?, role = ?, avatar = ?, updated_at = ? WHERE id = ?",
		a.Name, a.Email, string(a.Role), a.Avatar, a.UpdatedAt, a.ID)
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("update account: %w", err)
	}
	return affectedOne(res)
}

// UpdatePassword stores a new hash together with the instant it changed.
func (r *AccountRepo) UpdatePassword(ctx context.Context, id, hash string, changedAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE accounts SET password_hash = ?, password_changed_at = ?, updated_at = ? WHERE id = ?",
		hash, changedAt.UTC(), time.Now().UTC().Truncate(time.Millisecond), id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return affectedOne(res)
}

func (r *AccountRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM accounts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return affectedOne(res)
}

// List runs a shaped read built against AccountSchema.
func (r *AccountRepo) List(ctx context.Context, read query.Read) (Page, error) {
	return list(ctx, r.db, read)
}

func affectedOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
