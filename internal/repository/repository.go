package repository

import (
	"context"
	"time"

	"github.com/aryanahadi/canteen-bot/internal/ledger"
	"github.com/aryanahadi/canteen-bot/internal/models"
)

// Repository provides access to the canteen database: employees, daily
// menus, reservations, and runtime system settings. It satisfies
// ledger.Store, mapping Postgres-level conditions (missing rows, unique
// constraint violations) to the ledger's sentinel errors.
type Repository struct {
	db Database
}

// EmployeeManager defines the employee operations the bot layer depends on:
// identity resolution by chat id, first-contact linking by phone number, and
// administrative employee creation.
type EmployeeManager interface {
	EmployeeByTelegramID(ctx context.Context, telegramID int64) (models.Employee, error)
	LinkTelegramIDByPhone(ctx context.Context, telegramID int64, phone string) (models.Employee, error)
	CreateEmployee(ctx context.Context, nationalID, phone, fullName string, isAdmin bool) (models.Employee, error)
	LinkedTelegramIDs(ctx context.Context) ([]int64, error)
}

// CanteenManager defines the menu, reservation, and settings operations the
// bot layer depends on beyond what the ledger itself performs.
type CanteenManager interface {
	MenuByDate(ctx context.Context, date time.Time) (models.DailyMenu, error)
	UpsertMenu(ctx context.Context, date time.Time, meal1, meal2, meal3 string) (models.DailyMenu, error)
	SetMenuCanceled(ctx context.Context, date time.Time, canceled bool) error
	ReservationByEmployeeAndDate(ctx context.Context, employeeID int64, date time.Time) (models.Reservation, error)
	CancelReservation(ctx context.Context, employeeID int64, date time.Time) error
	ReservationsForDate(ctx context.Context, date time.Time) ([]models.ReservationDetail, error)
	AdmissionWindow(ctx context.Context) (ledger.Window, error)
	SetAdmissionWindow(ctx context.Context, win ledger.Window) error
}

// NewRepository creates a new instance of Repository with the provided Database.
// It returns a pointer to the newly created Repository.
func NewRepository(db Database) *Repository {
	return &Repository{db: db}
}
