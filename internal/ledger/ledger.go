// Package ledger decides whether a meal reservation may be placed or
// changed right now, and applies the one-reservation-per-employee-per-day
// upsert rule. It owns no storage and no clock: both are injected, and all
// user-facing text rendering is left to the caller.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aryanahadi/canteen-bot/internal/models"
)

// Sentinel errors the Store contract is expressed in. Implementations map
// their native failures (pgx.ErrNoRows, unique-constraint violations) to
// these values so the ledger can tell business conditions from outages.
var (
	// ErrEmployeeNotFound is returned when no employee exists for the given id.
	ErrEmployeeNotFound = errors.New("employee not found")
	// ErrMenuNotFound is returned when no daily menu exists for the given date.
	ErrMenuNotFound = errors.New("daily menu not found for date")
	// ErrReservationNotFound is returned when no reservation exists for the
	// given employee and date.
	ErrReservationNotFound = errors.New("reservation not found")
	// ErrDuplicateReservation is returned when an insert lost a race against
	// a concurrent insert for the same employee and date.
	ErrDuplicateReservation = errors.New("reservation already exists for this employee and date")
)

// Reason explains why an admission check or a reservation attempt was
// rejected. Reasons are structured values: the caller translates them into
// human-language messages.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonWindowClosed     Reason = "window_closed"
	ReasonMenuNotDefined   Reason = "menu_not_defined"
	ReasonMenuCanceled     Reason = "menu_canceled"
	ReasonEmployeeNotFound Reason = "employee_not_found"
)

// Outcome describes what a reservation attempt did.
type Outcome string

const (
	OutcomeCreated  Outcome = "created"
	OutcomeEdited   Outcome = "edited"
	OutcomeRejected Outcome = "rejected"
)

// Admission is the result of the admission check. When Allowed is false,
// Reason names the blocking condition and Window carries the configured
// bounds so the caller can render them.
type Admission struct {
	Allowed bool
	Reason  Reason
	Window  Window
}

// Result is the outcome of one reservation attempt.
type Result struct {
	Outcome     Outcome
	Reason      Reason             // Set when Outcome is OutcomeRejected
	Window      Window             // The admission window the decision was made against
	Reservation models.Reservation // The persisted row for Created/Edited outcomes
}

// Store is the persistence capability the ledger operates against.
// The insert must be guarded by a transactional unique constraint on
// (employee, date) and report a violation as ErrDuplicateReservation.
type Store interface {
	EmployeeByID(ctx context.Context, id int64) (models.Employee, error)
	MenuByDate(ctx context.Context, date time.Time) (models.DailyMenu, error)
	ReservationByEmployeeAndDate(ctx context.Context, employeeID int64, date time.Time) (models.Reservation, error)
	InsertReservation(ctx context.Context, employeeID int64, date time.Time, meal string) (models.Reservation, error)
	UpdateReservationMeal(ctx context.Context, id int64, meal string) (models.Reservation, error)
}

// Ledger applies the admission-window and upsert rules.
type Ledger struct {
	store Store
	clock Clock
	log   *slog.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock replaces the wall clock, for deterministic tests.
func WithClock(clock Clock) Option {
	return func(l *Ledger) { l.clock = clock }
}

// New creates a Ledger over the given store.
func New(log *slog.Logger, store Store, opts ...Option) *Ledger {
	ledger := &Ledger{
		store: store,
		clock: systemClock{},
		log:   log,
	}
	for _, opt := range opts {
		opt(ledger)
	}
	return ledger
}

// Admission decides whether a reservation for targetDate may be accepted
// right now. The hour window is checked against the current day first; only
// then is the menu for the target date consulted, so an absent menu and an
// emergency closure are reported as distinct reasons. A storage failure
// during the menu lookup is returned as an error, not a rejection.
func (l *Ledger) Admission(ctx context.Context, targetDate time.Time, win Window) (Admission, error) {
	if !win.Contains(l.clock.Now()) {
		return Admission{Allowed: false, Reason: ReasonWindowClosed, Window: win}, nil
	}

	menu, err := l.store.MenuByDate(ctx, targetDate)
	if err != nil {
		if errors.Is(err, ErrMenuNotFound) {
			return Admission{Allowed: false, Reason: ReasonMenuNotDefined, Window: win}, nil
		}
		return Admission{}, fmt.Errorf("failed to look up menu for %s: %w", targetDate.Format(time.DateOnly), err)
	}

	if menu.IsCanceled {
		return Admission{Allowed: false, Reason: ReasonMenuCanceled, Window: win}, nil
	}

	return Admission{Allowed: true, Window: win}, nil
}

// Reserve records the employee's meal selection for targetDate, creating a
// new reservation or overwriting an existing one for the same date. The
// target date is taken as given: callers decide which date a selection is
// for, the rule itself does not assume "tomorrow".
//
// An insert that loses a race against a concurrent duplicate submission is
// retried exactly once as an edit, so a double-tap on a chat button never
// surfaces an error: one call observes OutcomeCreated, the other
// OutcomeEdited. Any storage failure past that retry is returned as an
// error and is the only condition that warrants a "system error" message.
func (l *Ledger) Reserve(
	ctx context.Context,
	employeeID int64,
	targetDate time.Time,
	meal string,
	win Window,
) (Result, error) {
	admission, err := l.Admission(ctx, targetDate, win)
	if err != nil {
		return Result{}, err
	}
	if !admission.Allowed {
		return Result{Outcome: OutcomeRejected, Reason: admission.Reason, Window: win}, nil
	}

	if _, err = l.store.EmployeeByID(ctx, employeeID); err != nil {
		if errors.Is(err, ErrEmployeeNotFound) {
			// Precondition violation: the caller resolved a chat identity to an
			// employee id that does not exist. Logged as a caller defect.
			l.log.ErrorContext(ctx, "Reserve called with unknown employee id", "employee_id", employeeID)
			return Result{Outcome: OutcomeRejected, Reason: ReasonEmployeeNotFound, Window: win}, nil
		}
		return Result{}, fmt.Errorf("failed to look up employee %d: %w", employeeID, err)
	}

	existing, err := l.store.ReservationByEmployeeAndDate(ctx, employeeID, targetDate)
	switch {
	case err == nil:
		return l.edit(ctx, existing.ID, meal, win)
	case errors.Is(err, ErrReservationNotFound):
		// fall through to the insert path
	default:
		return Result{}, fmt.Errorf("failed to look up reservation: %w", err)
	}

	created, err := l.store.InsertReservation(ctx, employeeID, targetDate, meal)
	if err == nil {
		return Result{Outcome: OutcomeCreated, Window: win, Reservation: created}, nil
	}
	if !errors.Is(err, ErrDuplicateReservation) {
		return Result{}, fmt.Errorf("failed to insert reservation: %w", err)
	}

	// A concurrent submission won the insert race. Recover by re-reading the
	// winner's row and applying this selection as an edit.
	l.log.InfoContext(ctx, "Duplicate reservation insert, retrying as edit",
		"employee_id", employeeID, "date", targetDate.Format(time.DateOnly))

	existing, err = l.store.ReservationByEmployeeAndDate(ctx, employeeID, targetDate)
	if err != nil {
		return Result{}, fmt.Errorf("failed to re-read reservation after conflict: %w", err)
	}

	return l.edit(ctx, existing.ID, meal, win)
}

// edit overwrites the selected meal of an existing reservation. The update
// resets the status to reserved and leaves the row identity and attempt
// counter untouched.
func (l *Ledger) edit(ctx context.Context, id int64, meal string, win Window) (Result, error) {
	updated, err := l.store.UpdateReservationMeal(ctx, id, meal)
	if err != nil {
		return Result{}, fmt.Errorf("failed to update reservation %d: %w", id, err)
	}

	return Result{Outcome: OutcomeEdited, Window: win, Reservation: updated}, nil
}
