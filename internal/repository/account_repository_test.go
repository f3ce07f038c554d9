package repository

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/travel-planner/internal/model"
	"github.com/iliyamo/travel-planner/internal/query"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

var accountCols = []string{"id", "name", "email", "password_hash", "role", "avatar", "password_changed_at", "created_at", "updated_at"}

func TestAccountRepo_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccountRepo(db)

	mock.ExpectExec(`^INSERT INTO accounts \(id, name, email, password_hash, role`).
		WithArgs(sqlmock.AnyArg(), "ann", "ann@example.com", "hash", "user", nil, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	a := &model.Account{Name: "ann", Email: "ann@example.com", PasswordHash: "hash", Role: model.RoleUser}
	require.NoError(t, repo.Create(context.Background(), a))
	assert.Len(t, a.ID, 36)
	assert.False(t, a.CreatedAt.IsZero())
}

func TestAccountRepo_Create_DuplicateEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccountRepo(db)

	mock.ExpectExec(`^INSERT INTO accounts`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'ann@example.com' for key 'uq_accounts_email'"})

	err := repo.Create(context.Background(), &model.Account{Email: "ann@example.com"})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestAccountRepo_GetByEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccountRepo(db)
	changed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	created := changed.Add(-time.Hour)

	mock.ExpectQuery(`^SELECT id, name, email, password_hash, role, avatar, password_changed_at, created_at, updated_at FROM accounts WHERE email = \? LIMIT 1$`).
		WithArgs("ann@example.com").
		WillReturnRows(sqlmock.NewRows(accountCols).
			AddRow("a-1", "ann", "ann@example.com", "hash", "admin", "avatars/a-1/x", changed, created, created))

	a, err := repo.GetByEmail(context.Background(), "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, a.Role)
	require.NotNil(t, a.Avatar)
	assert.Equal(t, "avatars/a-1/x", *a.Avatar)
	require.NotNil(t, a.PasswordChangedAt)
	assert.True(t, a.PasswordChangedAt.Equal(changed))
}

func TestAccountRepo_GetByID_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccountRepo(db)

	mock.ExpectQuery(`FROM accounts WHERE id = \?`).WithArgs("nope").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAccountRepo_UpdatePassword(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccountRepo(db)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectExec(`^UPDATE accounts SET password_hash = \?, password_changed_at = \?`).
		WithArgs("newhash", at, sqlmock.AnyArg(), "a-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdatePassword(context.Background(), "a-1", "newhash", at))
}

func TestAccountRepo_Update_Duplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccountRepo(db)

	mock.ExpectExec(`^UPDATE accounts SET name = \?, email = \?, role = \?, avatar = \?`).
		WillReturnError(&mysql.MySQLError{Number: 1062})

	err := repo.Update(context.Background(), &model.Account{ID: "a-1", Email: "taken@example.com", Role: model.RoleUser})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestAccountRepo_Delete(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccountRepo(db)

	mock.ExpectExec(`^DELETE FROM accounts WHERE id = \?$`).WithArgs("a-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`^DELETE FROM accounts WHERE id = \?$`).WithArgs("gone").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`^DELETE FROM accounts WHERE id = \?$`).WithArgs("err").WillReturnError(errors.New("conn reset"))

	require.NoError(t, repo.Delete(context.Background(), "a-1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "gone"), ErrNotFound)
	err := repo.Delete(context.Background(), "err")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestAccountRepo_List_ProjectsOnlySelectedFields(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccountRepo(db)

	p, err := url.ParseQuery("role=admin&fields=email&sort=email&page=1&limit=2")
	require.NoError(t, err)
	read, err := query.New(AccountSchema, p).Filter().Sort().LimitFields().Paginate().Read()
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM `accounts` WHERE `role` = ?")).
		WithArgs("admin").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT `id`, `email` FROM `accounts` WHERE `role` = ? ORDER BY `email` ASC LIMIT ? OFFSET ?")).
		WithArgs("admin", 2, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}).
			AddRow("a-1", "a@example.com").
			AddRow("a-2", "b@example.com"))

	page, err := repo.List(context.Background(), read)
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, Document{"id": "a-1", "email": "a@example.com"}, page.Items[0])
}

func TestAccountSchema_HasNoPasswordFields(t *testing.T) {
	for _, name := range []string{"password", "passwordHash", "password_hash", "passwordChangedAt"} {
		_, ok := AccountSchema.Field(name)
		assert.False(t, ok, name)
	}
}
