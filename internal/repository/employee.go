package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/aryanahadi/canteen-bot/internal/ledger"
	"github.com/aryanahadi/canteen-bot/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolationCode is the Postgres error code for a unique constraint violation.
const uniqueViolationCode = "23505"

var (
	// ErrPhoneNotRegistered is returned when no employee with the given phone
	// number exists in the database.
	ErrPhoneNotRegistered = errors.New("employee with this phone number not found")
	// ErrAlreadyLinked is returned when the employee is already bound to a
	// telegram account.
	ErrAlreadyLinked = errors.New("this employee is already linked to a telegram account")
	// ErrTelegramIDTaken is returned when the telegram ID is already bound to
	// another employee.
	ErrTelegramIDTaken = errors.New("this telegram ID is already bound to another employee")
	// ErrEmployeeExists is returned when an employee with the same national id
	// or phone number already exists.
	ErrEmployeeExists = errors.New("employee with this national id or phone already exists")
)

const selectEmployeeColumns = `
	SELECT id, COALESCE(telegram_id, 0), national_id, phone, full_name, is_admin, created_at
	FROM employees`

// EmployeeByID retrieves an employee by their internal id. It returns
// ledger.ErrEmployeeNotFound when no such employee exists.
func (r *Repository) EmployeeByID(ctx context.Context, id int64) (models.Employee, error) {
	return r.scanEmployee(r.db.QueryRow(ctx, selectEmployeeColumns+" WHERE id = $1", id))
}

// EmployeeByTelegramID retrieves an employee by their bound telegram id.
// It returns ledger.ErrEmployeeNotFound when the telegram id is not bound
// to any employee.
func (r *Repository) EmployeeByTelegramID(ctx context.Context, telegramID int64) (models.Employee, error) {
	return r.scanEmployee(r.db.QueryRow(ctx, selectEmployeeColumns+" WHERE telegram_id = $1", telegramID))
}

func (r *Repository) scanEmployee(row pgx.Row) (models.Employee, error) {
	var emp models.Employee
	err := row.Scan(
		&emp.ID, &emp.TelegramID, &emp.NationalID, &emp.Phone, &emp.FullName, &emp.IsAdmin, &emp.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Employee{}, ledger.ErrEmployeeNotFound
		}
		return models.Employee{}, fmt.Errorf("failed to get employee data: %w", err)
	}

	return emp, nil
}

// LinkTelegramIDByPhone binds a telegram id to the employee record holding
// the given phone number. The telegram id is the only employee field that
// may be back-filled after creation; the binding happens once, inside a
// transaction: an employee already linked to another account and a telegram
// id already bound elsewhere are reported as distinct errors.
func (r *Repository) LinkTelegramIDByPhone(
	ctx context.Context,
	telegramID int64,
	phone string,
) (models.Employee, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return models.Employee{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // omitted because checking for errors will not affect the function

	var emp models.Employee
	var boundID int64
	err = tx.QueryRow(
		ctx,
		"SELECT id, COALESCE(telegram_id, 0) FROM employees WHERE phone = $1 FOR UPDATE",
		phone,
	).Scan(&emp.ID, &boundID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Employee{}, ErrPhoneNotRegistered
		}
		return models.Employee{}, fmt.Errorf("failed to find employee by phone: %w", err)
	}

	if boundID != 0 && boundID != telegramID {
		return models.Employee{}, ErrAlreadyLinked
	}

	var taken bool
	err = tx.QueryRow(
		ctx,
		"SELECT EXISTS (SELECT 1 FROM employees WHERE telegram_id = $1 AND id <> $2)",
		telegramID, emp.ID,
	).Scan(&taken)
	if err != nil {
		return models.Employee{}, fmt.Errorf("failed to check telegram id binding: %w", err)
	}
	if taken {
		return models.Employee{}, ErrTelegramIDTaken
	}

	err = tx.QueryRow(
		ctx,
		`UPDATE employees SET telegram_id = $1 WHERE id = $2
		 RETURNING id, COALESCE(telegram_id, 0), national_id, phone, full_name, is_admin, created_at`,
		telegramID, emp.ID,
	).Scan(&emp.ID, &emp.TelegramID, &emp.NationalID, &emp.Phone, &emp.FullName, &emp.IsAdmin, &emp.CreatedAt)
	if err != nil {
		return models.Employee{}, fmt.Errorf("failed to bind telegram id: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return models.Employee{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return emp, nil
}

// CreateEmployee inserts a new employee record. National id and phone are
// identity anchors and must be unique; a clash is reported as
// ErrEmployeeExists.
func (r *Repository) CreateEmployee(
	ctx context.Context,
	nationalID, phone, fullName string,
	isAdmin bool,
) (models.Employee, error) {
	var emp models.Employee
	err := r.db.QueryRow(
		ctx,
		`INSERT INTO employees (national_id, phone, full_name, is_admin)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, COALESCE(telegram_id, 0), national_id, phone, full_name, is_admin, created_at`,
		nationalID, phone, fullName, isAdmin,
	).Scan(&emp.ID, &emp.TelegramID, &emp.NationalID, &emp.Phone, &emp.FullName, &emp.IsAdmin, &emp.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return models.Employee{}, ErrEmployeeExists
		}
		return models.Employee{}, fmt.Errorf("failed to insert employee: %w", err)
	}

	return emp, nil
}

// EnsureAdmin inserts the bootstrap administrator if no employee with the
// given national id exists yet. Used once at startup so a fresh deployment
// has somebody who can define menus.
func (r *Repository) EnsureAdmin(ctx context.Context, nationalID, phone, fullName string) error {
	_, err := r.db.Exec(
		ctx,
		`INSERT INTO employees (national_id, phone, full_name, is_admin)
		 VALUES ($1, $2, $3, TRUE)
		 ON CONFLICT (national_id) DO NOTHING`,
		nationalID, phone, fullName,
	)
	if err != nil {
		return fmt.Errorf("failed to ensure bootstrap admin: %w", err)
	}

	return nil
}

// LinkedTelegramIDs returns the telegram ids of all employees who have
// completed first contact with the bot, for administrative broadcasts.
func (r *Repository) LinkedTelegramIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, "SELECT telegram_id FROM employees WHERE telegram_id IS NOT NULL")
	if err != nil {
		return nil, fmt.Errorf("failed to query linked telegram ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan telegram id row: %w", err)
		}
		ids = append(ids, id)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	return ids, nil
}
