package repository_test

import (
	"testing"
	"time"

	"github.com/aryanahadi/canteen-bot/internal/ledger"
	"github.com/aryanahadi/canteen-bot/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const selectEmployeeByID = `SELECT id, COALESCE\(telegram_id, 0\), national_id, phone, full_name, is_admin, created_at
	FROM employees WHERE id = \$1`

const selectEmployeeByTelegramID = `SELECT id, COALESCE\(telegram_id, 0\), national_id, phone, full_name, is_admin, created_at
	FROM employees WHERE telegram_id = \$1`

const selectEmployeeByPhone = `SELECT id, COALESCE\(telegram_id, 0\) FROM employees WHERE phone = \$1 FOR UPDATE`

const selectTelegramIDTaken = `SELECT EXISTS \(SELECT 1 FROM employees WHERE telegram_id = \$1 AND id <> \$2\)`

const updateTelegramID = `UPDATE employees SET telegram_id = \$1 WHERE id = \$2`

const insertEmployee = `INSERT INTO employees \(national_id, phone, full_name, is_admin\)`

const selectLinkedIDs = `SELECT telegram_id FROM employees WHERE telegram_id IS NOT NULL`

var employeeColumns = []string{"id", "telegram_id", "national_id", "phone", "full_name", "is_admin", "created_at"}

func employeeRow(id, telegramID int64) *pgxmock.Rows {
	return pgxmock.NewRows(employeeColumns).
		AddRow(id, telegramID, "0012345678", "09121234567", "Test Employee", false, time.Now())
}

func TestEmployeeByID(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectQuery(selectEmployeeByID).WithArgs(int64(7)).WillReturnRows(employeeRow(7, 12345))

		emp, err := repo.EmployeeByID(ctx, 7)

		require.NoError(t, err)
		assert.Equal(t, int64(7), emp.ID)
		assert.Equal(t, int64(12345), emp.TelegramID)
		assert.Equal(t, "Test Employee", emp.FullName)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - not found", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectQuery(selectEmployeeByID).WithArgs(int64(7)).WillReturnError(pgx.ErrNoRows)

		_, err = repo.EmployeeByID(ctx, 7)

		require.Error(t, err)
		require.ErrorIs(t, err, ledger.ErrEmployeeNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEmployeeByTelegramID(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectQuery(selectEmployeeByTelegramID).WithArgs(int64(12345)).WillReturnRows(employeeRow(7, 12345))

		emp, err := repo.EmployeeByTelegramID(ctx, 12345)

		require.NoError(t, err)
		assert.Equal(t, int64(7), emp.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - unlinked telegram id", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectQuery(selectEmployeeByTelegramID).WithArgs(int64(12345)).WillReturnError(pgx.ErrNoRows)

		_, err = repo.EmployeeByTelegramID(ctx, 12345)

		require.Error(t, err)
		require.ErrorIs(t, err, ledger.ErrEmployeeNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLinkTelegramIDByPhone(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	telegramID := int64(12345)
	phone := "09121234567"

	t.Run("error - failed to begin transaction", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectBegin().WillReturnError(assert.AnError)

		_, err = repo.LinkTelegramIDByPhone(ctx, telegramID, phone)

		require.Error(t, err)
		require.ErrorContains(t, err, "failed to begin transaction")
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - phone not registered", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectBegin()
		mock.ExpectQuery(selectEmployeeByPhone).WithArgs(phone).WillReturnError(pgx.ErrNoRows)
		mock.ExpectRollback()

		_, err = repo.LinkTelegramIDByPhone(ctx, telegramID, phone)

		require.Error(t, err)
		require.ErrorIs(t, err, repository.ErrPhoneNotRegistered)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - employee already linked to another account", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectBegin()
		mock.ExpectQuery(selectEmployeeByPhone).
			WithArgs(phone).
			WillReturnRows(pgxmock.NewRows([]string{"id", "telegram_id"}).AddRow(int64(7), int64(99999)))
		mock.ExpectRollback()

		_, err = repo.LinkTelegramIDByPhone(ctx, telegramID, phone)

		require.Error(t, err)
		require.ErrorIs(t, err, repository.ErrAlreadyLinked)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - telegram id bound to another employee", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectBegin()
		mock.ExpectQuery(selectEmployeeByPhone).
			WithArgs(phone).
			WillReturnRows(pgxmock.NewRows([]string{"id", "telegram_id"}).AddRow(int64(7), int64(0)))
		mock.ExpectQuery(selectTelegramIDTaken).
			WithArgs(telegramID, int64(7)).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectRollback()

		_, err = repo.LinkTelegramIDByPhone(ctx, telegramID, phone)

		require.Error(t, err)
		require.ErrorIs(t, err, repository.ErrTelegramIDTaken)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectBegin()
		mock.ExpectQuery(selectEmployeeByPhone).
			WithArgs(phone).
			WillReturnRows(pgxmock.NewRows([]string{"id", "telegram_id"}).AddRow(int64(7), int64(0)))
		mock.ExpectQuery(selectTelegramIDTaken).
			WithArgs(telegramID, int64(7)).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectQuery(updateTelegramID).
			WithArgs(telegramID, int64(7)).
			WillReturnRows(employeeRow(7, telegramID))
		mock.ExpectCommit()

		emp, err := repo.LinkTelegramIDByPhone(ctx, telegramID, phone)

		require.NoError(t, err)
		assert.Equal(t, int64(7), emp.ID)
		assert.Equal(t, telegramID, emp.TelegramID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - relinking the same account is idempotent", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectBegin()
		mock.ExpectQuery(selectEmployeeByPhone).
			WithArgs(phone).
			WillReturnRows(pgxmock.NewRows([]string{"id", "telegram_id"}).AddRow(int64(7), telegramID))
		mock.ExpectQuery(selectTelegramIDTaken).
			WithArgs(telegramID, int64(7)).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectQuery(updateTelegramID).
			WithArgs(telegramID, int64(7)).
			WillReturnRows(employeeRow(7, telegramID))
		mock.ExpectCommit()

		emp, err := repo.LinkTelegramIDByPhone(ctx, telegramID, phone)

		require.NoError(t, err)
		assert.Equal(t, telegramID, emp.TelegramID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCreateEmployee(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectQuery(insertEmployee).
			WithArgs("0012345678", "09121234567", "Test Employee", false).
			WillReturnRows(employeeRow(7, 0))

		emp, err := repo.CreateEmployee(ctx, "0012345678", "09121234567", "Test Employee", false)

		require.NoError(t, err)
		assert.Equal(t, int64(7), emp.ID)
		assert.Zero(t, emp.TelegramID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - duplicate identity", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectQuery(insertEmployee).
			WithArgs("0012345678", "09121234567", "Test Employee", false).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "employees_phone_key"})

		_, err = repo.CreateEmployee(ctx, "0012345678", "09121234567", "Test Employee", false)

		require.Error(t, err)
		require.ErrorIs(t, err, repository.ErrEmployeeExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEnsureAdmin(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectExec(insertEmployee).
			WithArgs("0000000000", "09000000000", "Super Admin").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err = repo.EnsureAdmin(ctx, "0000000000", "09000000000", "Super Admin")

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - admin already exists", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectExec(insertEmployee).
			WithArgs("0000000000", "09000000000", "Super Admin").
			WillReturnResult(pgxmock.NewResult("INSERT", 0))

		err = repo.EnsureAdmin(ctx, "0000000000", "09000000000", "Super Admin")

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLinkedTelegramIDs(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectQuery(selectLinkedIDs).
			WillReturnRows(pgxmock.NewRows([]string{"telegram_id"}).AddRow(int64(111)).AddRow(int64(222)))

		ids, err := repo.LinkedTelegramIDs(ctx)

		require.NoError(t, err)
		assert.Equal(t, []int64{111, 222}, ids)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - query failed", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectQuery(selectLinkedIDs).WillReturnError(assert.AnError)

		_, err = repo.LinkedTelegramIDs(ctx)

		require.Error(t, err)
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
