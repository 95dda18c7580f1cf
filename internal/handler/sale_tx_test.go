package handler

import (
	"context"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samaevent/ticketing-api/internal/model"
	"github.com/samaevent/ticketing-api/internal/repository"
)

var tierCols = []string{"id", "event_id", "name", "price", "quantity", "available", "promo_type", "promo_value", "promo_code"}

// A shortage on any line must abort the sale before it writes anything
// for that line. The mock fails on statements it was not told to
// expect, so reaching the decrement or insert for the short line fails
// the test.
func TestProcessSale_ShortLineAbortsWholeCart(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	// First line is covered: lock, decrement, booking insert.
	mock.ExpectQuery("SELECT (.+) FROM ticket_tiers WHERE id = (.+) FOR UPDATE").
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows(tierCols).
			AddRow(10, 7, "Early Bird", 2000, 100, 50, "", 0, nil))
	mock.ExpectExec("UPDATE ticket_tiers SET available = available -").
		WithArgs(int64(2), uint64(10), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO bookings").
		WillReturnResult(sqlmock.NewResult(41, 1))
	// Second line comes up short at lock time. Only its locking read
	// runs before control returns to the caller's rollback.
	mock.ExpectQuery("SELECT (.+) FROM ticket_tiers WHERE id = (.+) FOR UPDATE").
		WithArgs(uint64(11)).
		WillReturnRows(sqlmock.NewRows(tierCols).
			AddRow(11, 7, "VIP", 8000, 10, 1, "", 0, nil))
	mock.ExpectRollback()

	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)

	tiers := repository.NewTierRepo(db)
	bookings := repository.NewBookingRepo(db)
	lines := []saleLine{{TierID: 10, Qty: 2}, {TierID: 11, Qty: 3}}

	created, err := processSale(ctx, tx, tiers, bookings, 7, lines, buyerInfo{}, "cash", model.BookingPaid, "")
	require.Error(t, err)
	assert.Nil(t, created)

	var short *insufficientStockError
	require.True(t, errors.As(err, &short))
	assert.Equal(t, uint64(11), short.TierID)
	assert.Equal(t, int64(3), short.Requested)
	assert.Equal(t, int64(1), short.Available)

	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A tier belonging to another event aborts the cart the same way a
// shortage does, before any write for that line.
func TestProcessSale_ForeignTierAborts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM ticket_tiers WHERE id = (.+) FOR UPDATE").
		WithArgs(uint64(12)).
		WillReturnRows(sqlmock.NewRows(tierCols).
			AddRow(12, 99, "Standard", 3000, 40, 40, "", 0, nil))
	mock.ExpectRollback()

	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)

	created, err := processSale(ctx, tx,
		repository.NewTierRepo(db), repository.NewBookingRepo(db),
		7, []saleLine{{TierID: 12, Qty: 1}}, buyerInfo{}, "cash", model.BookingPaid, "")
	assert.ErrorIs(t, err, repository.ErrTierNotFound)
	assert.Nil(t, created)

	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}
