package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenRepoWithMock(t *testing.T) (*TokenRepo, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewTokenRepo(db), mock
}

func TestValidateRefresh_LiveToken(t *testing.T) {
	repo, mock := tokenRepoWithMock(t)
	mock.ExpectQuery("SELECT user_id, expires_at, revoked_at").
		WithArgs("h1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).
			AddRow(42, time.Now().UTC().Add(time.Hour), nil))

	userID, err := repo.ValidateRefresh(context.Background(), "h1")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), userID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Unknown, revoked and expired hashes are indistinguishable to the
// caller. A 401 is the only correct response in all three cases and
// leaking which one applies would let a client enumerate stored hashes.
func TestValidateRefresh_RejectsDeadTokens(t *testing.T) {
	cases := map[string]*sqlmock.Rows{
		"unknown": sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}),
		"revoked": sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).
			AddRow(42, time.Now().UTC().Add(time.Hour), time.Now().UTC()),
		"expired": sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).
			AddRow(42, time.Now().UTC().Add(-time.Minute), nil),
	}
	for name, rows := range cases {
		t.Run(name, func(t *testing.T) {
			repo, mock := tokenRepoWithMock(t)
			mock.ExpectQuery("SELECT user_id, expires_at, revoked_at").
				WithArgs("h1").
				WillReturnRows(rows)

			userID, err := repo.ValidateRefresh(context.Background(), "h1")
			assert.ErrorIs(t, err, ErrTokenInvalid)
			assert.Zero(t, userID)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
