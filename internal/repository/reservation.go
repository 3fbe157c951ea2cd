package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aryanahadi/canteen-bot/internal/ledger"
	"github.com/aryanahadi/canteen-bot/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const selectReservationColumns = `
	SELECT id, employee_id, reserved_for, selected_meal, status, attempts, created_at, updated_at
	FROM reservations`

// ReservationByEmployeeAndDate retrieves the reservation of one employee
// for one date, regardless of its status. It returns
// ledger.ErrReservationNotFound when no row exists.
func (r *Repository) ReservationByEmployeeAndDate(
	ctx context.Context,
	employeeID int64,
	date time.Time,
) (models.Reservation, error) {
	row := r.db.QueryRow(
		ctx,
		selectReservationColumns+" WHERE employee_id = $1 AND reserved_for = $2",
		employeeID, date,
	)
	return scanReservation(row)
}

// InsertReservation creates a new reservation row with status reserved and
// an attempt counter of one. The insert is guarded by the unique constraint
// on (employee_id, reserved_for): a concurrent duplicate submission is
// reported as ledger.ErrDuplicateReservation so the caller can fall back to
// the edit path instead of surfacing an error.
func (r *Repository) InsertReservation(
	ctx context.Context,
	employeeID int64,
	date time.Time,
	meal string,
) (models.Reservation, error) {
	row := r.db.QueryRow(
		ctx,
		`INSERT INTO reservations (employee_id, reserved_for, selected_meal, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, employee_id, reserved_for, selected_meal, status, attempts, created_at, updated_at`,
		employeeID, date, meal, models.StatusReserved,
	)

	res, err := scanReservation(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return models.Reservation{}, ledger.ErrDuplicateReservation
		}
		return models.Reservation{}, err
	}

	return res, nil
}

// UpdateReservationMeal overwrites the selected meal of an existing
// reservation and resets its status to reserved. The row identity and the
// attempt counter are left untouched.
func (r *Repository) UpdateReservationMeal(ctx context.Context, id int64, meal string) (models.Reservation, error) {
	row := r.db.QueryRow(
		ctx,
		`UPDATE reservations SET selected_meal = $1, status = $2, updated_at = now()
		 WHERE id = $3
		 RETURNING id, employee_id, reserved_for, selected_meal, status, attempts, created_at, updated_at`,
		meal, models.StatusReserved, id,
	)
	return scanReservation(row)
}

// CancelReservation flips the employee's reservation for the given date to
// the canceled status. The row is kept so administrative reporting on the
// final state stays correct. It returns ledger.ErrReservationNotFound when
// the employee holds no reservation for that date.
func (r *Repository) CancelReservation(ctx context.Context, employeeID int64, date time.Time) error {
	cmdTag, err := r.db.Exec(
		ctx,
		"UPDATE reservations SET status = $1, updated_at = now() WHERE employee_id = $2 AND reserved_for = $3",
		models.StatusCanceled, employeeID, date,
	)
	if err != nil {
		return fmt.Errorf("failed to cancel reservation: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ledger.ErrReservationNotFound
	}

	return nil
}

// ReservationsForDate returns all reservations for one date joined with the
// employee identity, ordered by employee name, for the daily report.
func (r *Repository) ReservationsForDate(ctx context.Context, date time.Time) ([]models.ReservationDetail, error) {
	query := `
		SELECT r.id, e.full_name, e.national_id, e.phone, r.selected_meal, r.status, r.updated_at
		FROM reservations r
		JOIN employees e ON e.id = r.employee_id
		WHERE r.reserved_for = $1
		ORDER BY e.full_name;
	`
	rows, err := r.db.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query reservations for date: %w", err)
	}
	defer rows.Close()

	var details []models.ReservationDetail
	for rows.Next() {
		var detail models.ReservationDetail
		if err = rows.Scan(
			&detail.ID, &detail.FullName, &detail.NationalID, &detail.Phone,
			&detail.SelectedMeal, &detail.Status, &detail.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reservation row: %w", err)
		}
		details = append(details, detail)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	return details, nil
}

func scanReservation(row pgx.Row) (models.Reservation, error) {
	var res models.Reservation
	err := row.Scan(
		&res.ID, &res.EmployeeID, &res.Date, &res.SelectedMeal,
		&res.Status, &res.Attempts, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Reservation{}, ledger.ErrReservationNotFound
		}
		return models.Reservation{}, fmt.Errorf("failed to scan reservation: %w", err)
	}

	return res, nil
}
