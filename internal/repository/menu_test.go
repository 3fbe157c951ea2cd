package repository_test

import (
	"testing"
	"time"

	"github.com/aryanahadi/canteen-bot/internal/ledger"
	"github.com/aryanahadi/canteen-bot/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const selectMenuByDate = `SELECT id, menu_date, meal_1, meal_2, meal_3, is_canceled, created_at
	FROM daily_menus WHERE menu_date = \$1`

const upsertMenu = `INSERT INTO daily_menus \(menu_date, meal_1, meal_2, meal_3\)`

const setMenuCanceled = `UPDATE daily_menus SET is_canceled = \$1 WHERE menu_date = \$2`

var menuColumns = []string{"id", "menu_date", "meal_1", "meal_2", "meal_3", "is_canceled", "created_at"}

func TestMenuByDate(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	date := time.Date(2025, time.March, 11, 0, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectQuery(selectMenuByDate).
			WithArgs(date).
			WillReturnRows(pgxmock.NewRows(menuColumns).
				AddRow(int64(1), date, "Chelo kabab", "Ghormeh sabzi", "", false, time.Now()))

		menu, err := repo.MenuByDate(ctx, date)

		require.NoError(t, err)
		assert.Equal(t, int64(1), menu.ID)
		assert.Equal(t, []string{"Chelo kabab", "Ghormeh sabzi"}, menu.Options())
		assert.False(t, menu.IsCanceled)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - no menu for date", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectQuery(selectMenuByDate).WithArgs(date).WillReturnError(pgx.ErrNoRows)

		_, err = repo.MenuByDate(ctx, date)

		require.Error(t, err)
		require.ErrorIs(t, err, ledger.ErrMenuNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpsertMenu(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	date := time.Date(2025, time.March, 11, 0, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectQuery(upsertMenu).
			WithArgs(date, "Chelo kabab", "Ghormeh sabzi", "Zereshk polo").
			WillReturnRows(pgxmock.NewRows(menuColumns).
				AddRow(int64(1), date, "Chelo kabab", "Ghormeh sabzi", "Zereshk polo", false, time.Now()))

		menu, err := repo.UpsertMenu(ctx, date, "Chelo kabab", "Ghormeh sabzi", "Zereshk polo")

		require.NoError(t, err)
		assert.Len(t, menu.Options(), 3)
		assert.False(t, menu.IsCanceled)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - upsert failed", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectQuery(upsertMenu).
			WithArgs(date, "Chelo kabab", "", "").
			WillReturnError(assert.AnError)

		_, err = repo.UpsertMenu(ctx, date, "Chelo kabab", "", "")

		require.Error(t, err)
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSetMenuCanceled(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	date := time.Date(2025, time.March, 11, 0, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectExec(setMenuCanceled).
			WithArgs(true, date).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err = repo.SetMenuCanceled(ctx, date, true)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - no menu for date", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectExec(setMenuCanceled).
			WithArgs(true, date).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err = repo.SetMenuCanceled(ctx, date, true)

		require.Error(t, err)
		require.ErrorIs(t, err, ledger.ErrMenuNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
